package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggeringEvent is the domain occurrence a scheduled notice is anchored to
type TriggeringEvent string

const (
	TriggeringEventDueDate                     TriggeringEvent = "Due date"
	TriggeringEventDueDateWithReminderFee      TriggeringEvent = "Due date - with reminder fee"
	TriggeringEventAgedToLost                  TriggeringEvent = "Aged to lost"
	TriggeringEventHoldExpiration              TriggeringEvent = "Hold expiration"
	TriggeringEventRequestExpiration           TriggeringEvent = "Request expiration"
	TriggeringEventTitleLevelRequestExpiration TriggeringEvent = "Title level request expiration"
	TriggeringEventOverdueFineReturned         TriggeringEvent = "Overdue fine returned"
	TriggeringEventOverdueFineRenewed          TriggeringEvent = "Overdue fine renewed"
	TriggeringEventAgedToLostFineCharged       TriggeringEvent = "Aged to lost - fine charged"
	TriggeringEventAgedToLostReturned          TriggeringEvent = "Aged to lost & item returned - fine adjusted"
	TriggeringEventAgedToLostReplaced          TriggeringEvent = "Aged to lost & item replaced - fine adjusted"
)

// automaticFeeFineAdjustments are fee/fine events raised by the system after the
// account may already have been closed.
var automaticFeeFineAdjustments = map[TriggeringEvent]struct{}{
	TriggeringEventAgedToLostReturned: {},
	TriggeringEventAgedToLostReplaced: {},
}

// IsAutomaticFeeFineAdjustment reports whether the event describes a system-driven fee/fine adjustment
func (e TriggeringEvent) IsAutomaticFeeFineAdjustment() bool {
	_, ok := automaticFeeFineAdjustments[e]
	return ok
}

// ParseTriggeringEvent matches the stored representation of an event
func ParseTriggeringEvent(s string) (TriggeringEvent, bool) {
	for _, e := range AllTriggeringEvents() {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// AllTriggeringEvents lists every event the engine knows about
func AllTriggeringEvents() []TriggeringEvent {
	return []TriggeringEvent{
		TriggeringEventDueDate,
		TriggeringEventDueDateWithReminderFee,
		TriggeringEventAgedToLost,
		TriggeringEventHoldExpiration,
		TriggeringEventRequestExpiration,
		TriggeringEventTitleLevelRequestExpiration,
		TriggeringEventOverdueFineReturned,
		TriggeringEventOverdueFineRenewed,
		TriggeringEventAgedToLostFineCharged,
		TriggeringEventAgedToLostReturned,
		TriggeringEventAgedToLostReplaced,
	}
}

// Timing is relative to the triggering instant
type Timing string

const (
	TimingBefore Timing = "Before"
	TimingAfter  Timing = "After"
	TimingUponAt Timing = "Upon At"
)

// Format is the delivery format of a notice
type Format string

const (
	FormatEmail Format = "Email"
	FormatSMS   Format = "SMS"
	FormatPrint Format = "Print"
)

// Interval is the unit of a Period
type Interval string

const (
	IntervalMinutes Interval = "Minutes"
	IntervalHours   Interval = "Hours"
	IntervalDays    Interval = "Days"
	IntervalWeeks   Interval = "Weeks"
	IntervalMonths  Interval = "Months"
)

// Period is a calendar-aware duration such as "2 Days"
type Period struct {
	Duration int      `json:"duration" validate:"gt=0"`
	Interval Interval `json:"intervalId" validate:"oneof=Minutes Hours Days Weeks Months"`
}

// AddTo returns t shifted forward by the period
func (p Period) AddTo(t time.Time) time.Time {
	switch p.Interval {
	case IntervalMinutes:
		return t.Add(time.Duration(p.Duration) * time.Minute)
	case IntervalHours:
		return t.Add(time.Duration(p.Duration) * time.Hour)
	case IntervalDays:
		return t.AddDate(0, 0, p.Duration)
	case IntervalWeeks:
		return t.AddDate(0, 0, 7*p.Duration)
	case IntervalMonths:
		return t.AddDate(0, p.Duration, 0)
	default:
		return t
	}
}

// NoticeConfig is the per-notice configuration value object
type NoticeConfig struct {
	Timing          Timing    `json:"timing" validate:"required,oneof=Before After 'Upon At'"`
	RecurringPeriod *Period   `json:"recurringPeriod,omitempty" validate:"omitempty"`
	TemplateID      uuid.UUID `json:"templateId" validate:"required"`
	Format          Format    `json:"format" validate:"required,oneof=Email SMS Print"`
	SendInRealTime  bool      `json:"sendInRealTime"`
}

// IsRecurring reports whether the notice re-fires on a cadence
func (c NoticeConfig) IsRecurring() bool {
	return c.RecurringPeriod != nil
}

// WithTemplate returns a copy using another template and format
func (c NoticeConfig) WithTemplate(templateID uuid.UUID, format Format) NoticeConfig {
	c.TemplateID = templateID
	c.Format = format
	return c
}

// ScheduledNotice is the unit of work of the engine. Values are never mutated in
// place; the With* methods return modified copies.
type ScheduledNotice struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       string          `json:"sessionId,omitempty"`
	LoanID          uuid.UUID       `json:"loanId,omitempty"`
	RequestID       uuid.UUID       `json:"requestId,omitempty"`
	FeeFineActionID uuid.UUID       `json:"feeFineActionId,omitempty"`
	RecipientUserID uuid.UUID       `json:"recipientUserId" validate:"required"`
	TriggeringEvent TriggeringEvent `json:"triggeringEvent" validate:"required"`
	NextRunTime     time.Time       `json:"nextRunTime" validate:"required"`
	Config          NoticeConfig    `json:"noticeConfig"`
}

// WithNextRunTime returns a copy scheduled for t
func (n ScheduledNotice) WithNextRunTime(t time.Time) ScheduledNotice {
	n.NextRunTime = t.UTC()
	return n
}

// WithConfig returns a copy carrying another configuration
func (n ScheduledNotice) WithConfig(c NoticeConfig) ScheduledNotice {
	n.Config = c
	return n
}

func (n ScheduledNotice) HasLoan() bool          { return n.LoanID != uuid.Nil }
func (n ScheduledNotice) HasRequest() bool       { return n.RequestID != uuid.Nil }
func (n ScheduledNotice) HasFeeFineAction() bool { return n.FeeFineActionID != uuid.Nil }

// NoticePage is one page of due notices
type NoticePage struct {
	Notices      []ScheduledNotice
	TotalRecords int
}

// DueNoticeQuery selects notices due before a time limit
type DueNoticeQuery struct {
	Before       time.Time
	RealTime     *bool
	Events       []TriggeringEvent
	OrderByGroup bool
	Limit        int
}
