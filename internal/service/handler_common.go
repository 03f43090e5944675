package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/repository"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// HandlerDeps are the collaborators shared by the triggering-event handlers
type HandlerDeps struct {
	Loans     repository.LoanRepository
	Requests  repository.RequestRepository
	Accounts  repository.AccountRepository
	Actions   repository.FeeFineActionRepository
	Templates repository.TemplateRepository
	Policies  repository.NoticePolicyRepository
	Reminders repository.ReminderScheduleRepository
	Calendar  repository.CalendarRepository
	Location  *time.Location
	Log       logrus.FieldLogger
}

// quietCleanupError marks a missing reference that is expected and should be
// cleaned up without raising an error event.
type quietCleanupError struct {
	err error
}

func (e *quietCleanupError) Error() string { return e.err.Error() }
func (e *quietCleanupError) Unwrap() error { return e.err }

func isQuietCleanup(err error) bool {
	var quiet *quietCleanupError
	return errors.As(err, &quiet)
}

func (d HandlerDeps) fetchTemplate(ctx context.Context, nc domain.NoticeContext) error {
	templateID := nc.Notice.Config.TemplateID

	exists, err := d.Templates.Exists(ctx, templateID)
	if err != nil {
		return err
	}
	if !exists {
		return customError.WrapTemplateNotFound(templateID.String())
	}
	return nil
}

// fetchLoan loads the loan of the notice and requires its item and borrower.
// A closed loan whose borrower is gone is reported as a quiet cleanup.
func (d HandlerDeps) fetchLoan(ctx context.Context, loanID uuid.UUID) (domain.Loan, error) {
	loan, err := d.Loans.GetByID(ctx, loanID)
	if err != nil {
		return domain.Loan{}, err
	}

	if loan.Item == nil {
		return domain.Loan{}, customError.WrapRecordNotFound(customError.RecordItem, loan.ItemID.String())
	}

	if loan.User == nil {
		notFound := customError.WrapRecordNotFound(customError.RecordUser, loan.UserID.String())
		if loan.IsClosed() {
			return domain.Loan{}, &quietCleanupError{err: notFound}
		}
		return domain.Loan{}, notFound
	}

	return loan, nil
}

func (d HandlerDeps) lookupPolicy(ctx context.Context, user *domain.User, item *domain.Item) (uuid.UUID, error) {
	var patronGroupID, locationID uuid.UUID
	if user != nil {
		patronGroupID = user.PatronGroupID
	}
	if item != nil {
		locationID = item.EffectiveLocationID
	}
	return d.Policies.LookupPolicy(ctx, patronGroupID, locationID)
}

func loanLogItem(nc domain.NoticeContext) domain.NoticeLogItem {
	item := domain.NoticeLogItem{
		TemplateID:      nc.Notice.Config.TemplateID,
		TriggeringEvent: nc.Notice.TriggeringEvent,
		NoticePolicyID:  nc.NoticePolicyID,
	}
	if nc.Loan != nil {
		item.LoanID = nc.Loan.ID
		item.ItemID = nc.Loan.ItemID
		item.ServicePointID = nc.Loan.CheckoutServicePointID
	}
	return item
}

func noticeLog(nc domain.NoticeContext, now time.Time, items ...domain.NoticeLogItem) domain.NoticeLog {
	record := domain.NoticeLog{
		UserID: nc.Notice.RecipientUserID,
		Date:   now.UTC(),
		Items:  items,
	}
	if u := nc.Recipient(); u != nil {
		record.UserBarcode = u.Barcode
	}
	return record
}
