package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReminderStep is one entry of a reminder-fee sequence. Steps are numbered from 1.
type ReminderStep struct {
	SequenceNumber int             `json:"sequenceNumber"`
	Period         Period          `json:"period"`
	Fee            decimal.Decimal `json:"reminderFee"`
	Format         Format          `json:"noticeFormat"`
	TemplateID     uuid.UUID       `json:"noticeTemplateId"`
}

func (s ReminderStep) HasZeroFee() bool {
	return s.Fee.IsZero()
}

// ReminderSchedule is the reminder sequence attached to an overdue-fine policy
type ReminderSchedule struct {
	PolicyID    uuid.UUID      `json:"policyId"`
	CountClosed bool           `json:"countClosed"`
	Steps       []ReminderStep `json:"reminderSchedule"`
}

// StepAfter returns the step following sequence number n. StepAfter(0) is the first step.
func (s ReminderSchedule) StepAfter(n int) (ReminderStep, bool) {
	for _, step := range s.Steps {
		if step.SequenceNumber == n+1 {
			return step, true
		}
	}
	return ReminderStep{}, false
}

// OpeningDay is one calendar day of a service point
type OpeningDay struct {
	Date time.Time `json:"date"`
	Open bool      `json:"open"`
}

// AdjacentOpeningDays is the requested day with the open days around it
type AdjacentOpeningDays struct {
	Previous  OpeningDay
	Requested OpeningDay
	Next      OpeningDay
}

// ReminderPlan is what a reminder-fee notice will send now and do afterwards.
// OpenToday is whether the checkout service point is open on the processing day.
// Billed is set once the sent step was recorded on the loan.
type ReminderPlan struct {
	Current     ReminderStep
	Next        *ReminderStep
	NextRunTime time.Time
	OpenToday   bool
	Billed      bool
}

// MarkBilled returns a copy of the plan with the current step recorded
func (p ReminderPlan) MarkBilled() ReminderPlan {
	p.Billed = true
	return p
}
