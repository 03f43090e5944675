package service

import (
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
)

// OutcomeKind is the terminal decision for one notice in one cycle
type OutcomeKind int

const (
	// OutcomeRetain leaves the stored notice as it is
	OutcomeRetain OutcomeKind = iota
	OutcomeDelete
	OutcomeUpdate
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDelete:
		return "delete"
	case OutcomeUpdate:
		return "update"
	default:
		return "retain"
	}
}

// Outcome is what the recurrence scheduler decided for a notice
type Outcome struct {
	Kind   OutcomeKind
	Next   domain.ScheduledNotice
	Reason string
}

func deleteOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeDelete, Reason: reason}
}

func updateOutcome(next domain.ScheduledNotice) Outcome {
	return Outcome{Kind: OutcomeUpdate, Next: next}
}

func retainOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeRetain, Reason: reason}
}

// NextRunTime advances a recurring notice by its period. When the engine has
// fallen behind and the candidate is already in the past, it is re-anchored on now.
func NextRunTime(notice domain.ScheduledNotice, now time.Time) time.Time {
	period := *notice.Config.RecurringPeriod

	candidate := period.AddTo(notice.NextRunTime)
	if candidate.Before(now) {
		candidate = period.AddTo(now)
	}
	return candidate
}

// RescheduleRecurring applies the shared recurrence rules. Irrelevant, terminal or
// non-recurring notices are deleted; otherwise the next occurrence is checked with
// nextIrrelevant and either stored or deleted.
func RescheduleRecurring(
	notice domain.ScheduledNotice,
	now time.Time,
	current Verdict,
	terminal bool,
	nextIrrelevant func(next domain.ScheduledNotice) Verdict,
) Outcome {
	switch {
	case current.Irrelevant:
		return deleteOutcome(current.Reason)
	case terminal:
		return deleteOutcome("referenced record is closed")
	case !notice.Config.IsRecurring():
		return deleteOutcome("notice is not recurring")
	}

	next := notice.WithNextRunTime(NextRunTime(notice, now))

	if nextIrrelevant != nil {
		if v := nextIrrelevant(next); v.Irrelevant {
			return deleteOutcome(v.Reason)
		}
	}

	return updateOutcome(next)
}
