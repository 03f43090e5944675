package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_AddTo(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		period   Period
		expected time.Time
	}{
		{"minutes", Period{Duration: 45, Interval: IntervalMinutes}, time.Date(2024, 1, 31, 10, 15, 0, 0, time.UTC)},
		{"hours", Period{Duration: 20, Interval: IntervalHours}, time.Date(2024, 2, 1, 5, 30, 0, 0, time.UTC)},
		{"days", Period{Duration: 2, Interval: IntervalDays}, time.Date(2024, 2, 2, 9, 30, 0, 0, time.UTC)},
		{"weeks", Period{Duration: 1, Interval: IntervalWeeks}, time.Date(2024, 2, 7, 9, 30, 0, 0, time.UTC)},
		{"months normalise past the end of february", Period{Duration: 1, Interval: IntervalMonths}, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)},
		{"unknown interval", Period{Duration: 3, Interval: "Fortnights"}, start},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(tt.period.AddTo(start)), "got %v", tt.period.AddTo(start))
		})
	}
}

func TestParseTriggeringEvent(t *testing.T) {
	for _, e := range AllTriggeringEvents() {
		parsed, ok := ParseTriggeringEvent(string(e))
		assert.True(t, ok, e)
		assert.Equal(t, e, parsed)
	}

	_, ok := ParseTriggeringEvent("due date")
	assert.False(t, ok)
}

func TestTriggeringEvent_IsAutomaticFeeFineAdjustment(t *testing.T) {
	assert.True(t, TriggeringEventAgedToLostReturned.IsAutomaticFeeFineAdjustment())
	assert.True(t, TriggeringEventAgedToLostReplaced.IsAutomaticFeeFineAdjustment())
	assert.False(t, TriggeringEventOverdueFineReturned.IsAutomaticFeeFineAdjustment())
}

func TestScheduledNotice_WithMethodsReturnCopies(t *testing.T) {
	period := &Period{Duration: 1, Interval: IntervalDays}
	original := ScheduledNotice{
		ID:              uuid.New(),
		LoanID:          uuid.New(),
		TriggeringEvent: TriggeringEventDueDate,
		NextRunTime:     time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Config:          NoticeConfig{Timing: TimingBefore, RecurringPeriod: period, TemplateID: uuid.New(), Format: FormatEmail},
	}
	snapshot := original

	local := time.FixedZone("UTC+2", 2*60*60)
	moved := original.WithNextRunTime(time.Date(2024, 5, 2, 10, 0, 0, 0, local))
	swapped := original.WithConfig(original.Config.WithTemplate(uuid.New(), FormatSMS))

	assert.Equal(t, snapshot, original)
	assert.Equal(t, time.UTC, moved.NextRunTime.Location())
	assert.True(t, moved.NextRunTime.Equal(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, FormatSMS, swapped.Config.Format)
	assert.NotEqual(t, original.Config.TemplateID, swapped.Config.TemplateID)
	assert.True(t, swapped.Config.IsRecurring())
	assert.True(t, original.HasLoan())
	assert.False(t, original.HasRequest())
	assert.False(t, original.HasFeeFineAction())
}

func TestGroupDefinitionOf(t *testing.T) {
	n := ScheduledNotice{
		RecipientUserID: uuid.New(),
		SessionID:       "session-1",
		TriggeringEvent: TriggeringEventHoldExpiration,
		Config:          NoticeConfig{Timing: TimingUponAt, TemplateID: uuid.New(), Format: FormatEmail},
	}
	other := n
	other.ID = uuid.New()
	other.RequestID = uuid.New()

	assert.Equal(t, GroupDefinitionOf(n), GroupDefinitionOf(other))

	other.SessionID = "session-2"
	assert.NotEqual(t, GroupDefinitionOf(n), GroupDefinitionOf(other))
}

func TestMergeNoticeLogs(t *testing.T) {
	userID := uuid.New()
	date := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	first := NoticeLog{UserID: userID, UserBarcode: "111", Date: date, Items: []NoticeLogItem{{LoanID: uuid.New()}}}
	second := NoticeLog{UserID: userID, UserBarcode: "111", Date: date, Items: []NoticeLogItem{{LoanID: uuid.New()}, {LoanID: uuid.New()}}}

	merged := MergeNoticeLogs([]NoticeLog{first, second})

	assert.Equal(t, userID, merged.UserID)
	assert.Equal(t, "111", merged.UserBarcode)
	require.Len(t, merged.Items, 3)
	assert.Equal(t, first.Items[0].LoanID, merged.Items[0].LoanID)
	assert.Equal(t, second.Items[1].LoanID, merged.Items[2].LoanID)
	assert.Len(t, first.Items, 1)
	assert.Equal(t, NoticeLog{}, MergeNoticeLogs(nil))
}

func TestReminderSchedule_StepAfter(t *testing.T) {
	schedule := ReminderSchedule{Steps: []ReminderStep{
		{SequenceNumber: 1, Fee: decimal.Zero},
		{SequenceNumber: 2, Fee: decimal.NewFromFloat(1.5)},
	}}

	first, ok := schedule.StepAfter(0)
	require.True(t, ok)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.True(t, first.HasZeroFee())

	second, ok := schedule.StepAfter(1)
	require.True(t, ok)
	assert.False(t, second.HasZeroFee())

	_, ok = schedule.StepAfter(2)
	assert.False(t, ok)
}

func TestLoan_ReminderBilling(t *testing.T) {
	loan := Loan{ID: uuid.New(), Status: LoanStatusOpen, Action: LoanActionRenewed}
	assert.Equal(t, 0, loan.LastReminderNumber())
	assert.True(t, loan.IsRenewed())
	assert.False(t, loan.IsDeclaredLost())
	assert.Equal(t, ItemStatus(""), loan.ItemStatus())

	billed := loan.WithReminderBilled(2, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2, billed.LastReminderNumber())
	assert.Nil(t, loan.LastFeeBilled)
}

func TestItemStatusSet(t *testing.T) {
	set := NewItemStatusSet(ItemStatusDeclaredLost, ItemStatusClaimedReturned)

	assert.True(t, set.Contains(ItemStatusDeclaredLost))
	assert.False(t, set.Contains(ItemStatusAgedToLost))

	set[ItemStatusAgedToLost] = struct{}{}
	assert.True(t, set.Contains(ItemStatusAgedToLost))
}

func TestRequest_Status(t *testing.T) {
	tests := []struct {
		status                    RequestStatus
		closed                    bool
		closedExceptPickupExpired bool
	}{
		{RequestStatusOpenNotYetFilled, false, false},
		{RequestStatusOpenAwaitingPickup, false, false},
		{RequestStatusClosedFilled, true, true},
		{RequestStatusClosedPickupExpired, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := Request{Status: tt.status}
			assert.Equal(t, tt.closed, r.IsClosed())
			assert.Equal(t, tt.closedExceptPickupExpired, r.IsClosedExceptPickupExpired())
		})
	}
}

func TestNoticeContext_Recipient(t *testing.T) {
	borrower := &User{ID: uuid.New()}
	requester := &User{ID: uuid.New()}
	base := NewNoticeContext(ScheduledNotice{ID: uuid.New()})

	assert.Nil(t, base.Recipient())
	assert.Equal(t, borrower, base.WithLoan(Loan{User: borrower}).Recipient())
	assert.Equal(t, requester, base.WithRequest(Request{Requester: requester}).Recipient())
	assert.Nil(t, base.Loan)
}

func TestSummary_Add(t *testing.T) {
	a := Summary{Fetched: 2, Sent: 1, Failed: 1}
	b := Summary{Fetched: 3, Sent: 2, Deleted: 2, Untouched: 1}

	assert.Equal(t, Summary{Fetched: 5, Sent: 3, Deleted: 2, Failed: 1, Untouched: 1}, a.Add(b))
	assert.Equal(t, 2, a.Fetched)
}
