package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

const outputFormatHTML = "text/html"

// Dispatcher sends one message per group of relevant notices
type Dispatcher struct {
	sender PatronNoticeSender
	log    logrus.FieldLogger
}

func NewDispatcher(sender PatronNoticeSender, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// SendGroup merges the payloads and log records of the members into a single
// notice and sends it. An empty group sends nothing.
func (d *Dispatcher) SendGroup(ctx context.Context, token string, members []domain.NoticeContext) error {
	if len(members) == 0 {
		return nil
	}

	notice := BuildGroupedNotice(token, members)

	if err := d.sender.Send(ctx, notice); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"recipient_id": notice.RecipientID,
			"template_id":  notice.TemplateID,
			"members":      len(members),
		}).Error("failed to send grouped notice")
		return customError.WrapDispatchFailed(err)
	}

	return nil
}

// BuildGroupedNotice renders the outbound notice of a group. The first member
// stands for the group since members share recipient and template.
func BuildGroupedNotice(token string, members []domain.NoticeContext) domain.PatronNotice {
	representative := members[0]

	entries := make([]domain.Payload, 0, len(members))
	logs := make([]domain.NoticeLog, 0, len(members))
	for _, m := range members {
		entries = append(entries, m.Payload)
		logs = append(logs, m.Log)
	}

	return domain.PatronNotice{
		TemplateID:      representative.Notice.Config.TemplateID,
		RecipientID:     representative.Notice.RecipientUserID,
		DeliveryChannel: string(representative.Notice.Config.Format),
		OutputFormat:    outputFormatHTML,
		Context:         groupedPayload(representative.Recipient(), token, entries),
		Log:             domain.MergeNoticeLogs(logs),
	}
}
