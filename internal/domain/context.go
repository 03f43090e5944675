package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the rendering context handed to the notice transport
type Payload map[string]interface{}

// NoticeLogItem describes one notice inside a log record
type NoticeLogItem struct {
	TemplateID      uuid.UUID       `json:"templateId"`
	TriggeringEvent TriggeringEvent `json:"triggeringEvent"`
	NoticePolicyID  uuid.UUID       `json:"noticePolicyId,omitempty"`
	LoanID          uuid.UUID       `json:"loanId,omitempty"`
	RequestID       uuid.UUID       `json:"requestId,omitempty"`
	FeeFineID       uuid.UUID       `json:"feeFineId,omitempty"`
	ItemID          uuid.UUID       `json:"itemId,omitempty"`
	ServicePointID  uuid.UUID       `json:"servicePointId,omitempty"`
}

// NoticeLog is the structured log record sent along with a notice
type NoticeLog struct {
	UserID      uuid.UUID       `json:"userId"`
	UserBarcode string          `json:"userBarcode,omitempty"`
	Date        time.Time       `json:"date"`
	Items       []NoticeLogItem `json:"items"`
}

// MergeNoticeLogs folds the records of a group into one, keeping the user of the first
func MergeNoticeLogs(logs []NoticeLog) NoticeLog {
	if len(logs) == 0 {
		return NoticeLog{}
	}
	merged := NoticeLog{
		UserID:      logs[0].UserID,
		UserBarcode: logs[0].UserBarcode,
		Date:        logs[0].Date,
	}
	for _, l := range logs {
		merged.Items = append(merged.Items, l.Items...)
	}
	return merged
}

// NoticeContext aggregates a notice with the records fetched for it during one
// processing pass. It is never persisted.
type NoticeContext struct {
	Notice              ScheduledNotice
	Loan                *Loan
	Request             *Request
	Account             *Account
	ChargeAction        *FeeFineAction
	Action              *FeeFineAction
	LostItemFeesCharged bool
	Reminder            *ReminderPlan
	NoticePolicyID      uuid.UUID
	Payload             Payload
	Log                 NoticeLog
}

func NewNoticeContext(notice ScheduledNotice) NoticeContext {
	return NoticeContext{Notice: notice}
}

// Recipient returns the patron the notice is addressed to, when it was fetched
func (c NoticeContext) Recipient() *User {
	switch {
	case c.Loan != nil && c.Loan.User != nil:
		return c.Loan.User
	case c.Request != nil && c.Request.Requester != nil:
		return c.Request.Requester
	default:
		return nil
	}
}

func (c NoticeContext) WithLoan(loan Loan) NoticeContext {
	c.Loan = &loan
	return c
}

func (c NoticeContext) WithRequest(request Request) NoticeContext {
	c.Request = &request
	return c
}

func (c NoticeContext) WithAccount(account Account) NoticeContext {
	c.Account = &account
	return c
}

func (c NoticeContext) WithChargeAction(action FeeFineAction) NoticeContext {
	c.ChargeAction = &action
	return c
}

func (c NoticeContext) WithAction(action FeeFineAction) NoticeContext {
	c.Action = &action
	return c
}

func (c NoticeContext) WithLostItemFeesCharged(charged bool) NoticeContext {
	c.LostItemFeesCharged = charged
	return c
}

func (c NoticeContext) WithReminderPlan(plan ReminderPlan) NoticeContext {
	c.Reminder = &plan
	return c
}

func (c NoticeContext) WithNoticePolicyID(id uuid.UUID) NoticeContext {
	c.NoticePolicyID = id
	return c
}

func (c NoticeContext) WithPayload(p Payload) NoticeContext {
	c.Payload = p
	return c
}

func (c NoticeContext) WithLog(l NoticeLog) NoticeContext {
	c.Log = l
	return c
}

// GroupDefinition is the key under which due notices share one outbound message
type GroupDefinition struct {
	RecipientUserID uuid.UUID
	TemplateID      uuid.UUID
	TriggeringEvent TriggeringEvent
	Format          Format
	Timing          Timing
	SessionID       string
}

func GroupDefinitionOf(n ScheduledNotice) GroupDefinition {
	return GroupDefinition{
		RecipientUserID: n.RecipientUserID,
		TemplateID:      n.Config.TemplateID,
		TriggeringEvent: n.TriggeringEvent,
		Format:          n.Config.Format,
		Timing:          n.Config.Timing,
		SessionID:       n.SessionID,
	}
}

// PatronNotice is one outbound message
type PatronNotice struct {
	TemplateID      uuid.UUID `json:"templateId"`
	RecipientID     uuid.UUID `json:"recipientId"`
	DeliveryChannel string    `json:"deliveryChannel"`
	OutputFormat    string    `json:"outputFormat"`
	Context         Payload   `json:"context"`
	Log             NoticeLog `json:"log"`
}

// Summary reports the outcome of one processing cycle
type Summary struct {
	Fetched   int `json:"fetched"`
	Groups    int `json:"groups"`
	Messages  int `json:"messages"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	CleanedUp int `json:"cleanedUp"`
	Failed    int `json:"failed"`
	Untouched int `json:"untouched"`
}

// Add folds another summary into s
func (s Summary) Add(o Summary) Summary {
	s.Fetched += o.Fetched
	s.Groups += o.Groups
	s.Messages += o.Messages
	s.Sent += o.Sent
	s.Skipped += o.Skipped
	s.Updated += o.Updated
	s.Deleted += o.Deleted
	s.CleanedUp += o.CleanedUp
	s.Failed += o.Failed
	s.Untouched += o.Untouched
	return s
}
