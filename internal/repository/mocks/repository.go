package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/circulation-notices/internal/domain"
)

type MockNoticeRepository struct {
	mock.Mock
}

func (m *MockNoticeRepository) FindDue(ctx context.Context, query domain.DueNoticeQuery) (domain.NoticePage, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(domain.NoticePage), args.Error(1)
}

func (m *MockNoticeRepository) Create(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	args := m.Called(ctx, notice)
	return args.Get(0).(domain.ScheduledNotice), args.Error(1)
}

func (m *MockNoticeRepository) Update(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	args := m.Called(ctx, notice)
	return args.Get(0).(domain.ScheduledNotice), args.Error(1)
}

func (m *MockNoticeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNoticeRepository) DeleteByLoanID(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error {
	args := m.Called(ctx, loanID, events)
	return args.Error(0)
}

func (m *MockNoticeRepository) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateLastFeeBilled(ctx context.Context, loanID uuid.UUID, billed domain.LastFeeBilled) error {
	args := m.Called(ctx, loanID, billed)
	return args.Error(0)
}

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Request), args.Error(1)
}

func (m *MockRequestRepository) GetByIDWithoutItem(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Request), args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByLoanID(ctx context.Context, loanID uuid.UUID, feeFineTypes []string) ([]domain.Account, error) {
	args := m.Called(ctx, loanID, feeFineTypes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) CreateWithCharge(ctx context.Context, account domain.Account, charge domain.FeeFineAction) error {
	args := m.Called(ctx, account, charge)
	return args.Error(0)
}

type MockFeeFineActionRepository struct {
	mock.Mock
}

func (m *MockFeeFineActionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.FeeFineAction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.FeeFineAction), args.Error(1)
}

func (m *MockFeeFineActionRepository) FindChargeForAccount(ctx context.Context, accountID uuid.UUID) (domain.FeeFineAction, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.FeeFineAction), args.Error(1)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Exists(ctx context.Context, templateID uuid.UUID) (bool, error) {
	args := m.Called(ctx, templateID)
	return args.Bool(0), args.Error(1)
}

type MockNoticePolicyRepository struct {
	mock.Mock
}

func (m *MockNoticePolicyRepository) LookupPolicy(ctx context.Context, patronGroupID, locationID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, patronGroupID, locationID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockReminderScheduleRepository struct {
	mock.Mock
}

func (m *MockReminderScheduleRepository) GetByOverdueFinePolicyID(ctx context.Context, policyID uuid.UUID) (domain.ReminderSchedule, error) {
	args := m.Called(ctx, policyID)
	return args.Get(0).(domain.ReminderSchedule), args.Error(1)
}

type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) LookupOpeningDays(ctx context.Context, servicePointID uuid.UUID, date time.Time) (domain.AdjacentOpeningDays, error) {
	args := m.Called(ctx, servicePointID, date)
	return args.Get(0).(domain.AdjacentOpeningDays), args.Error(1)
}

type MockBatchLock struct {
	mock.Mock
}

func (m *MockBatchLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockBatchLock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
