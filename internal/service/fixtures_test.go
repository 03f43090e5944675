package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/repository/mocks"
	"github.com/segyhp/circulation-notices/pkg/logger"
	"github.com/segyhp/circulation-notices/pkg/utils"
)

var testNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

type testRepos struct {
	notices   *mocks.MockNoticeRepository
	loans     *mocks.MockLoanRepository
	requests  *mocks.MockRequestRepository
	accounts  *mocks.MockAccountRepository
	actions   *mocks.MockFeeFineActionRepository
	templates *mocks.MockTemplateRepository
	policies  *mocks.MockNoticePolicyRepository
	reminders *mocks.MockReminderScheduleRepository
	calendar  *mocks.MockCalendarRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		notices:   &mocks.MockNoticeRepository{},
		loans:     &mocks.MockLoanRepository{},
		requests:  &mocks.MockRequestRepository{},
		accounts:  &mocks.MockAccountRepository{},
		actions:   &mocks.MockFeeFineActionRepository{},
		templates: &mocks.MockTemplateRepository{},
		policies:  &mocks.MockNoticePolicyRepository{},
		reminders: &mocks.MockReminderScheduleRepository{},
		calendar:  &mocks.MockCalendarRepository{},
	}
}

func (r *testRepos) deps() HandlerDeps {
	return HandlerDeps{
		Loans:     r.loans,
		Requests:  r.requests,
		Accounts:  r.accounts,
		Actions:   r.actions,
		Templates: r.templates,
		Policies:  r.policies,
		Reminders: r.reminders,
		Calendar:  r.calendar,
		Location:  time.UTC,
		Log:       logger.Discard(),
	}
}

func (r *testRepos) assertExpectations(t *testing.T) {
	r.notices.AssertExpectations(t)
	r.loans.AssertExpectations(t)
	r.requests.AssertExpectations(t)
	r.accounts.AssertExpectations(t)
	r.actions.AssertExpectations(t)
	r.templates.AssertExpectations(t)
	r.policies.AssertExpectations(t)
	r.reminders.AssertExpectations(t)
	r.calendar.AssertExpectations(t)
}

func testUser() *domain.User {
	return &domain.User{
		ID:            uuid.New(),
		Barcode:       "patron-001",
		FirstName:     "Alex",
		LastName:      "Reader",
		Email:         "alex@example.org",
		PatronGroupID: uuid.New(),
	}
}

func testItem() *domain.Item {
	return &domain.Item{
		ID:                  uuid.New(),
		Barcode:             "item-001",
		Title:               "The Go Programming Language",
		Status:              domain.ItemStatusCheckedOut,
		EffectiveLocationID: uuid.New(),
	}
}

func testLoan(user *domain.User, dueDate time.Time) domain.Loan {
	item := testItem()
	return domain.Loan{
		ID:                     uuid.New(),
		UserID:                 user.ID,
		ItemID:                 item.ID,
		Status:                 domain.LoanStatusOpen,
		Action:                 domain.LoanActionCheckedOut,
		LoanDate:               dueDate.AddDate(0, 0, -14),
		DueDate:                dueDate,
		CheckoutServicePointID: uuid.New(),
		OverdueFinePolicyID:    uuid.New(),
		Item:                   item,
		User:                   user,
	}
}

func testRequest(user *domain.User, status domain.RequestStatus) domain.Request {
	item := testItem()
	expires := testNow.AddDate(0, 0, 3)
	return domain.Request{
		ID:                    uuid.New(),
		RequesterID:           user.ID,
		ItemID:                item.ID,
		InstanceID:            uuid.New(),
		RequestLevel:          domain.RequestLevelItem,
		RequestType:           "Hold",
		Status:                status,
		RequestDate:           testNow.AddDate(0, 0, -7),
		RequestExpirationDate: &expires,
		PickupServicePointID:  uuid.New(),
		Item:                  item,
		Requester:             user,
	}
}

func testAccount(userID uuid.UUID, loanID uuid.UUID) domain.Account {
	return domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		LoanID:        uuid.NullUUID{UUID: loanID, Valid: loanID != uuid.Nil},
		FeeFineType:   "Overdue fine",
		FeeFineOwner:  "Main library",
		Amount:        decimal.NewFromInt(5),
		Remaining:     decimal.NewFromInt(5),
		Status:        domain.AccountStatusOpen,
		PaymentStatus: domain.PaymentStatusOutstanding,
		CreatedAt:     testNow.AddDate(0, 0, -1),
	}
}

func loanNotice(event domain.TriggeringEvent, loan domain.Loan, timing domain.Timing, nextRun time.Time, period *domain.Period) domain.ScheduledNotice {
	return domain.ScheduledNotice{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		RecipientUserID: loan.UserID,
		TriggeringEvent: event,
		NextRunTime:     nextRun,
		Config: domain.NoticeConfig{
			Timing:          timing,
			RecurringPeriod: period,
			TemplateID:      uuid.New(),
			Format:          domain.FormatEmail,
		},
	}
}

func requestNotice(event domain.TriggeringEvent, request domain.Request, timing domain.Timing, templateID uuid.UUID) domain.ScheduledNotice {
	return domain.ScheduledNotice{
		ID:              uuid.New(),
		RequestID:       request.ID,
		RecipientUserID: request.RequesterID,
		TriggeringEvent: event,
		NextRunTime:     testNow.Add(-time.Minute),
		Config: domain.NoticeConfig{
			Timing:     timing,
			TemplateID: templateID,
			Format:     domain.FormatEmail,
		},
	}
}

func feeFineNotice(event domain.TriggeringEvent, userID, actionID uuid.UUID) domain.ScheduledNotice {
	return domain.ScheduledNotice{
		ID:              uuid.New(),
		FeeFineActionID: actionID,
		RecipientUserID: userID,
		TriggeringEvent: event,
		NextRunTime:     testNow.Add(-time.Minute),
		Config: domain.NoticeConfig{
			Timing:     domain.TimingUponAt,
			TemplateID: uuid.New(),
			Format:     domain.FormatEmail,
		},
	}
}

func days(n int) *domain.Period {
	return &domain.Period{Duration: n, Interval: domain.IntervalDays}
}

// onDay matches a calendar lookup for day's date in UTC
func onDay(day time.Time) interface{} {
	want := utils.StartOfDay(day, time.UTC)
	return mock.MatchedBy(func(d time.Time) bool {
		return utils.StartOfDay(d, time.UTC).Equal(want)
	})
}

func openingDays(day time.Time, open bool) domain.AdjacentOpeningDays {
	return domain.AdjacentOpeningDays{Requested: domain.OpeningDay{Date: utils.StartOfDay(day, time.UTC), Open: open}}
}
