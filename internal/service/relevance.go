package service

import (
	"fmt"
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/pkg/utils"
)

// Verdict is the result of a relevance check. Reason is set for irrelevant notices.
type Verdict struct {
	Irrelevant bool
	Reason     string
}

var relevant = Verdict{}

func irrelevant(format string, args ...interface{}) Verdict {
	return Verdict{Irrelevant: true, Reason: fmt.Sprintf(format, args...)}
}

// Item statuses that make a notice pointless. Extend these sets to suppress
// notices for further statuses.
var (
	dueDateSuppressingStatuses = domain.NewItemStatusSet(
		domain.ItemStatusDeclaredLost,
		domain.ItemStatusAgedToLost,
		domain.ItemStatusClaimedReturned,
	)
	agedToLostSuppressingStatuses = domain.NewItemStatusSet(
		domain.ItemStatusDeclaredLost,
		domain.ItemStatusClaimedReturned,
	)
	reminderFeeSuppressingStatuses = domain.NewItemStatusSet(
		domain.ItemStatusDeclaredLost,
		domain.ItemStatusClaimedReturned,
	)
)

// closureTriggers lists, per request event, the closed statuses an "Upon At"
// notice is waiting for.
var closureTriggers = map[domain.TriggeringEvent]map[domain.RequestStatus]struct{}{
	domain.TriggeringEventHoldExpiration: {
		domain.RequestStatusClosedPickupExpired: {},
	},
	domain.TriggeringEventRequestExpiration: {
		domain.RequestStatusClosedUnfilled: {},
	},
	domain.TriggeringEventTitleLevelRequestExpiration: {
		domain.RequestStatusClosedUnfilled: {},
	},
}

// DueDateNoticeRelevance checks a due date notice against the current loan
func DueDateNoticeRelevance(notice domain.ScheduledNotice, loan domain.Loan, now time.Time) Verdict {
	if notice.TriggeringEvent == domain.TriggeringEventDueDate &&
		notice.Config.Timing == domain.TimingBefore &&
		utils.IsDateOverdue(loan.DueDate, now) {
		return irrelevant("due date %s has passed", loan.DueDate.Format(time.RFC3339))
	}
	if status := loan.ItemStatus(); dueDateSuppressingStatuses.Contains(status) {
		return irrelevant("item %s is %s", loan.ItemID, status)
	}
	if loan.IsRenewed() {
		return irrelevant("loan %s was renewed", loan.ID)
	}
	if loan.DueDateChanged && loan.DueDate.After(now) {
		return irrelevant("due date of loan %s was changed", loan.ID)
	}
	if loan.IsClosed() {
		return irrelevant("loan %s is closed", loan.ID)
	}
	return relevant
}

// AgedToLostNoticeRelevance checks an aged to lost notice against the current loan
func AgedToLostNoticeRelevance(loan domain.Loan, lostItemFeesCharged bool) Verdict {
	if status := loan.ItemStatus(); agedToLostSuppressingStatuses.Contains(status) {
		return irrelevant("item %s is %s", loan.ItemID, status)
	}
	if loan.IsRenewed() {
		return irrelevant("loan %s was renewed", loan.ID)
	}
	if loan.IsClosed() {
		return irrelevant("loan %s is closed", loan.ID)
	}
	if lostItemFeesCharged {
		return irrelevant("lost item fees were already charged for loan %s", loan.ID)
	}
	return relevant
}

// ReminderFeeNoticeRelevance checks a reminder fee notice against the current loan
func ReminderFeeNoticeRelevance(loan domain.Loan) Verdict {
	if loan.IsClosed() {
		return irrelevant("loan %s is closed", loan.ID)
	}
	if status := loan.ItemStatus(); reminderFeeSuppressingStatuses.Contains(status) {
		return irrelevant("item %s is %s", loan.ItemID, status)
	}
	return relevant
}

// RequestNoticeRelevance checks a request expiration family notice. A closed
// request makes the notice irrelevant unless it is an "Upon At" notice and the
// request was closed by the expiration the notice announces.
func RequestNoticeRelevance(notice domain.ScheduledNotice, request domain.Request) Verdict {
	if !request.IsClosed() {
		return relevant
	}
	if notice.Config.Timing == domain.TimingUponAt {
		if _, expired := closureTriggers[notice.TriggeringEvent][request.Status]; expired {
			return relevant
		}
	}
	return irrelevant("request %s is %s", request.ID, request.Status)
}

// FeeFineNoticeRelevance checks a fee/fine notice. A missing account is irrelevant.
func FeeFineNoticeRelevance(notice domain.ScheduledNotice, account *domain.Account) Verdict {
	if account == nil {
		return irrelevant("account is missing")
	}
	if !account.IsOpen() && !notice.TriggeringEvent.IsAutomaticFeeFineAdjustment() {
		return irrelevant("account %s is %s", account.ID, account.Status)
	}
	return relevant
}

// LoanNextRecurrenceRelevance rejects a "Before" recurrence that would run after the due date
func LoanNextRecurrenceRelevance(next domain.ScheduledNotice, loan domain.Loan) Verdict {
	if next.Config.IsRecurring() &&
		next.Config.Timing == domain.TimingBefore &&
		next.NextRunTime.After(loan.DueDate) {
		return irrelevant("next run %s is after due date", next.NextRunTime.Format(time.RFC3339))
	}
	return relevant
}

// RequestNextRecurrenceRelevance rejects a "Before" recurrence that would run after
// the request or hold shelf expires
func RequestNextRecurrenceRelevance(next domain.ScheduledNotice, request domain.Request) Verdict {
	if !next.Config.IsRecurring() || next.Config.Timing != domain.TimingBefore {
		return relevant
	}
	if d := request.RequestExpirationDate; d != nil && next.NextRunTime.After(*d) {
		return irrelevant("next run is after request expiration")
	}
	if d := request.HoldShelfExpirationDate; d != nil && next.NextRunTime.After(*d) {
		return irrelevant("next run is after hold shelf expiration")
	}
	return relevant
}
