package service

import (
	"github.com/segyhp/circulation-notices/internal/domain"
)

// NoticeGroup is a set of due notices answered by one outbound message
type NoticeGroup struct {
	Definition domain.GroupDefinition
	Notices    []domain.ScheduledNotice
}

// GroupNotices partitions notices by their group definition. Groups appear in
// the order their first member was seen.
func GroupNotices(notices []domain.ScheduledNotice) []NoticeGroup {
	index := make(map[domain.GroupDefinition]int)
	var groups []NoticeGroup

	for _, n := range notices {
		def := domain.GroupDefinitionOf(n)
		i, ok := index[def]
		if !ok {
			i = len(groups)
			index[def] = i
			groups = append(groups, NoticeGroup{Definition: def})
		}
		groups[i].Notices = append(groups[i].Notices, n)
	}

	return groups
}

// DropTrailingGroup removes the last group of a truncated page ordered by group,
// since its remaining members were cut off by the page limit. A single group is
// kept so that an oversized group still makes progress.
func DropTrailingGroup(groups []NoticeGroup, page domain.NoticePage) ([]NoticeGroup, []NoticeGroup) {
	if page.TotalRecords <= len(page.Notices) || len(groups) < 2 {
		return groups, nil
	}
	last := len(groups) - 1
	return groups[:last], groups[last:]
}

func countNotices(groups []NoticeGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Notices)
	}
	return n
}
