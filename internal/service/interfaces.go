package service

import (
	"context"
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
)

// PatronNoticeSender delivers one rendered notice to the notification transport
type PatronNoticeSender interface {
	Send(ctx context.Context, notice domain.PatronNotice) error
}

// NoticeErrorLogger records notices that could not be processed
type NoticeErrorLogger interface {
	PublishNoticeError(ctx context.Context, record domain.NoticeLog, errMessage string)
}

// EventHandler is the per-triggering-event capability set used by the engine.
// Fetch is the only method allowed to perform I/O.
type EventHandler interface {
	// Fetch loads every record the notice needs into the context
	Fetch(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error)

	// IsIrrelevant decides whether the notice should still fire
	IsIrrelevant(nc domain.NoticeContext, now time.Time) Verdict

	// RenderContext builds the payload entry for this notice
	RenderContext(nc domain.NoticeContext) domain.Payload

	// LogFragment builds the structured log record for this notice
	LogFragment(nc domain.NoticeContext, now time.Time) domain.NoticeLog

	// Reschedule decides what happens to the stored notice after this cycle
	Reschedule(nc domain.NoticeContext, now time.Time) Outcome

	// GroupToken is the key grouped payload entries are listed under
	GroupToken() string
}

// sendHolder is implemented by handlers that sometimes keep a relevant notice
// back without sending or rescheduling it.
type sendHolder interface {
	HoldsSend(nc domain.NoticeContext) bool
}

// afterSendHook is implemented by handlers that record side effects of a
// successful send before the notice is rescheduled. On error the returned
// context still reflects the side effects that were recorded.
type afterSendHook interface {
	AfterSend(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error)
}
