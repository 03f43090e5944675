package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/domain"
)

const (
	patronNoticeRoutingPrefix = "patron-notice."
	noticeErrorRoutingKey     = "notice.error"
)

// Publisher is the broker side of the notifier
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// PatronNoticeSender hands rendered notices to the downstream delivery service
type PatronNoticeSender struct {
	publisher Publisher
	log       logrus.FieldLogger
}

func NewPatronNoticeSender(publisher Publisher, log logrus.FieldLogger) *PatronNoticeSender {
	return &PatronNoticeSender{publisher: publisher, log: log}
}

// Send publishes the notice under patron-notice.<channel>
func (s *PatronNoticeSender) Send(ctx context.Context, notice domain.PatronNotice) error {
	routingKey := patronNoticeRoutingPrefix + strings.ToLower(notice.DeliveryChannel)

	if err := s.publisher.Publish(ctx, routingKey, notice); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"template_id":  notice.TemplateID,
		"recipient_id": notice.RecipientID,
		"items":        len(notice.Log.Items),
	}).Debug("patron notice published")

	return nil
}

// NoticeErrorEvent is published whenever a notice could not be processed
type NoticeErrorEvent struct {
	ErrorMessage string           `json:"errorMessage"`
	Log          domain.NoticeLog `json:"log"`
	OccurredAt   time.Time        `json:"occurredAt"`
}

// ErrorLogPublisher publishes notice error events for the circulation log
type ErrorLogPublisher struct {
	publisher Publisher
	log       logrus.FieldLogger
}

func NewErrorLogPublisher(publisher Publisher, log logrus.FieldLogger) *ErrorLogPublisher {
	return &ErrorLogPublisher{publisher: publisher, log: log}
}

// PublishNoticeError never fails the caller; a lost error event is only logged
func (p *ErrorLogPublisher) PublishNoticeError(ctx context.Context, record domain.NoticeLog, errMessage string) {
	event := NoticeErrorEvent{
		ErrorMessage: errMessage,
		Log:          record,
		OccurredAt:   time.Now().UTC(),
	}

	if err := p.publisher.Publish(ctx, noticeErrorRoutingKey, event); err != nil {
		p.log.WithError(err).WithField("user_id", record.UserID).Warn("failed to publish notice error event")
	}
}
