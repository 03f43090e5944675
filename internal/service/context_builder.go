package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/repository"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// BuiltNotice is a notice whose context was assembled successfully
type BuiltNotice struct {
	Context domain.NoticeContext
	Handler EventHandler
	Verdict Verdict
}

func (b BuiltNotice) held() bool {
	if b.Verdict.Irrelevant {
		return false
	}
	holder, ok := b.Handler.(sendHolder)
	return ok && holder.HoldsSend(b.Context)
}

func (b BuiltNotice) sendable() bool {
	return !b.Verdict.Irrelevant && !b.held()
}

// ContextBuilder assembles the context of one notice and cleans up notices
// whose references are gone
type ContextBuilder struct {
	notices  repository.NoticeRepository
	registry HandlerRegistry
	errorLog NoticeErrorLogger
	log      logrus.FieldLogger
}

func NewContextBuilder(
	notices repository.NoticeRepository,
	registry HandlerRegistry,
	errorLog NoticeErrorLogger,
	log logrus.FieldLogger,
) *ContextBuilder {
	return &ContextBuilder{
		notices:  notices,
		registry: registry,
		errorLog: errorLog,
		log:      log,
	}
}

// Build runs the fetch steps of the notice's handler and judges its relevance.
// The payload is only rendered for relevant notices.
func (b *ContextBuilder) Build(ctx context.Context, notice domain.ScheduledNotice, now time.Time) (BuiltNotice, error) {
	log := b.log.WithFields(logrus.Fields{
		"notice_id":        notice.ID,
		"triggering_event": notice.TriggeringEvent,
	})

	handler, err := b.registry.Lookup(notice.TriggeringEvent)
	if err != nil {
		log.WithError(err).Error("no handler for triggering event")
		b.errorLog.PublishNoticeError(ctx, failureLog(notice, now), err.Error())
		return BuiltNotice{}, err
	}

	nc, err := handler.Fetch(ctx, domain.NewNoticeContext(notice), now)
	if err != nil {
		return BuiltNotice{}, b.handleFetchFailure(ctx, log, notice, now, err)
	}

	verdict := handler.IsIrrelevant(nc, now)
	if !verdict.Irrelevant {
		nc = nc.WithPayload(handler.RenderContext(nc))
	}
	nc = nc.WithLog(handler.LogFragment(nc, now))

	return BuiltNotice{Context: nc, Handler: handler, Verdict: verdict}, nil
}

func (b *ContextBuilder) handleFetchFailure(
	ctx context.Context,
	log logrus.FieldLogger,
	notice domain.ScheduledNotice,
	now time.Time,
	err error,
) error {
	if !customError.IsReferenceNotFound(err) {
		log.WithError(err).Warn("failed to build notice context, notice left for next run")
		b.errorLog.PublishNoticeError(ctx, failureLog(notice, now), err.Error())
		return err
	}

	if delErr := b.notices.Delete(ctx, notice.ID); delErr != nil {
		log.WithError(delErr).Error("failed to delete notice with missing reference")
		return delErr
	}

	if isQuietCleanup(err) {
		log.WithError(err).Debug("deleted notice of closed loan")
		return err
	}

	log.WithError(err).Info("deleted notice with missing reference")
	b.errorLog.PublishNoticeError(ctx, failureLog(notice, now), err.Error())
	return err
}

// failureLog is the log record of a notice whose context could not be built
func failureLog(notice domain.ScheduledNotice, now time.Time) domain.NoticeLog {
	return domain.NoticeLog{
		UserID: notice.RecipientUserID,
		Date:   now.UTC(),
		Items: []domain.NoticeLogItem{{
			TemplateID:      notice.Config.TemplateID,
			TriggeringEvent: notice.TriggeringEvent,
			LoanID:          notice.LoanID,
			RequestID:       notice.RequestID,
		}},
	}
}
