package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/repository"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// SchedulingService is used by the circulation workflows to create notices and
// to drop them when the loan or request they describe changes
type SchedulingService struct {
	notices   repository.NoticeRepository
	validator *validator.Validate
	log       logrus.FieldLogger
}

func NewSchedulingService(notices repository.NoticeRepository, log logrus.FieldLogger) *SchedulingService {
	return &SchedulingService{
		notices:   notices,
		validator: validator.New(),
		log:       log,
	}
}

// Schedule validates and stores a new notice. The stored notice is returned so
// callers always observe the outcome of the creation.
func (s *SchedulingService) Schedule(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	if err := s.validate(notice); err != nil {
		return domain.ScheduledNotice{}, customError.WrapInvalidNotice(err)
	}

	created, err := s.notices.Create(ctx, notice.WithNextRunTime(notice.NextRunTime))
	if err != nil {
		s.log.WithError(err).WithField("triggering_event", notice.TriggeringEvent).Error("failed to schedule notice")
		return domain.ScheduledNotice{}, err
	}

	s.log.WithFields(logrus.Fields{
		"notice_id":        created.ID,
		"triggering_event": created.TriggeringEvent,
		"next_run_time":    created.NextRunTime,
	}).Debug("notice scheduled")

	return created, nil
}

func (s *SchedulingService) validate(notice domain.ScheduledNotice) error {
	if err := s.validator.Struct(notice); err != nil {
		return err
	}
	if _, ok := domain.ParseTriggeringEvent(string(notice.TriggeringEvent)); !ok {
		return fmt.Errorf("unknown triggering event %q", notice.TriggeringEvent)
	}

	refs := 0
	for _, id := range []uuid.UUID{notice.LoanID, notice.RequestID, notice.FeeFineActionID} {
		if id != uuid.Nil {
			refs++
		}
	}
	if refs != 1 {
		return fmt.Errorf("exactly one of loan, request or fee/fine action must be referenced, got %d", refs)
	}

	if p := notice.Config.RecurringPeriod; p != nil {
		if err := s.validator.Struct(p); err != nil {
			return err
		}
	}
	return nil
}

// DeleteForLoan drops the notices of a loan, optionally only those of some triggering events
func (s *SchedulingService) DeleteForLoan(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error {
	if err := s.notices.DeleteByLoanID(ctx, loanID, events...); err != nil {
		s.log.WithError(err).WithField("loan_id", loanID).Error("failed to delete loan notices")
		return err
	}
	return nil
}

// DeleteForRequest drops every notice of a request
func (s *SchedulingService) DeleteForRequest(ctx context.Context, requestID uuid.UUID) error {
	if err := s.notices.DeleteByRequestID(ctx, requestID); err != nil {
		s.log.WithError(err).WithField("request_id", requestID).Error("failed to delete request notices")
		return err
	}
	return nil
}
