package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/circulation-notices/internal/domain"
)

// NoticeRepository defines the interface for scheduled notice storage
type NoticeRepository interface {
	// FindDue retrieves one page of notices whose next run time is before the query limit
	FindDue(ctx context.Context, query domain.DueNoticeQuery) (domain.NoticePage, error)

	// Create stores a new notice, assigning an id when it has none
	Create(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error)

	// Update replaces a stored notice
	Update(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error)

	// Delete removes a notice; deleting an absent notice is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByLoanID removes notices of a loan, optionally limited to some triggering events
	DeleteByLoanID(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error

	// DeleteByRequestID removes every notice of a request
	DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// GetByID retrieves a loan with its item and borrower
	GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error)

	// UpdateLastFeeBilled records the last reminder fee billed for a loan
	UpdateLastFeeBilled(ctx context.Context, loanID uuid.UUID, billed domain.LastFeeBilled) error
}

// RequestRepository defines the interface for request data operations
type RequestRepository interface {
	// GetByID retrieves a request with its item and requester
	GetByID(ctx context.Context, id uuid.UUID) (domain.Request, error)

	// GetByIDWithoutItem retrieves a request and its requester only
	GetByIDWithoutItem(ctx context.Context, id uuid.UUID) (domain.Request, error)
}

// AccountRepository defines the interface for fee/fine accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Account, error)

	// FindByLoanID retrieves accounts of a loan having one of the given fee types
	FindByLoanID(ctx context.Context, loanID uuid.UUID, feeFineTypes []string) ([]domain.Account, error)

	// CreateWithCharge stores an account together with its charge action
	CreateWithCharge(ctx context.Context, account domain.Account, charge domain.FeeFineAction) error
}

// FeeFineActionRepository defines the interface for fee/fine actions
type FeeFineActionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.FeeFineAction, error)

	// FindChargeForAccount retrieves the action that created the account
	FindChargeForAccount(ctx context.Context, accountID uuid.UUID) (domain.FeeFineAction, error)
}

// TemplateRepository answers whether a notice template exists
type TemplateRepository interface {
	Exists(ctx context.Context, templateID uuid.UUID) (bool, error)
}

// NoticePolicyRepository resolves the notice policy applied to a patron and item
type NoticePolicyRepository interface {
	LookupPolicy(ctx context.Context, patronGroupID, locationID uuid.UUID) (uuid.UUID, error)
}

// ReminderScheduleRepository supplies the reminder sequence of an overdue-fine policy
type ReminderScheduleRepository interface {
	// GetByOverdueFinePolicyID returns the schedule, or a not-found error when the policy has no reminders
	GetByOverdueFinePolicyID(ctx context.Context, policyID uuid.UUID) (domain.ReminderSchedule, error)
}

// CalendarRepository looks up service point opening days
type CalendarRepository interface {
	LookupOpeningDays(ctx context.Context, servicePointID uuid.UUID, date time.Time) (domain.AdjacentOpeningDays, error)
}

// BatchLock guards a processing run against overlapping triggers
type BatchLock interface {
	// Acquire returns false when another run holds the lock
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
