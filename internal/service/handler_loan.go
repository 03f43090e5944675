package service

import (
	"context"
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// loanNoticeHandler handles due date and aged to lost notices
type loanNoticeHandler struct {
	HandlerDeps
}

func newLoanNoticeHandler(deps HandlerDeps) *loanNoticeHandler {
	return &loanNoticeHandler{HandlerDeps: deps}
}

func (h *loanNoticeHandler) Fetch(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error) {
	notice := nc.Notice
	if !notice.HasLoan() {
		return nc, customError.WrapRecordNotFound(customError.RecordLoan, "")
	}

	if err := h.fetchTemplate(ctx, nc); err != nil {
		return nc, err
	}

	loan, err := h.fetchLoan(ctx, notice.LoanID)
	if err != nil {
		return nc, err
	}
	nc = nc.WithLoan(loan)

	if notice.TriggeringEvent == domain.TriggeringEventAgedToLost {
		fees, err := h.Accounts.FindByLoanID(ctx, loan.ID, domain.LostItemFeeTypes)
		if err != nil {
			return nc, err
		}
		nc = nc.WithLostItemFeesCharged(len(fees) > 0)
	}

	policyID, err := h.lookupPolicy(ctx, loan.User, loan.Item)
	if err != nil {
		return nc, err
	}

	return nc.WithNoticePolicyID(policyID), nil
}

func (h *loanNoticeHandler) IsIrrelevant(nc domain.NoticeContext, now time.Time) Verdict {
	switch nc.Notice.TriggeringEvent {
	case domain.TriggeringEventDueDate:
		return DueDateNoticeRelevance(nc.Notice, *nc.Loan, now)
	case domain.TriggeringEventAgedToLost:
		return AgedToLostNoticeRelevance(*nc.Loan, nc.LostItemFeesCharged)
	default:
		return irrelevant("unexpected triggering event %s", nc.Notice.TriggeringEvent)
	}
}

func (h *loanNoticeHandler) RenderContext(nc domain.NoticeContext) domain.Payload {
	return domain.Payload{
		"loan": loanPayload(*nc.Loan),
		"item": itemPayload(nc.Loan.Item),
	}
}

func (h *loanNoticeHandler) LogFragment(nc domain.NoticeContext, now time.Time) domain.NoticeLog {
	return noticeLog(nc, now, loanLogItem(nc))
}

func (h *loanNoticeHandler) Reschedule(nc domain.NoticeContext, now time.Time) Outcome {
	loan := *nc.Loan

	return RescheduleRecurring(nc.Notice, now, h.IsIrrelevant(nc, now), loan.IsClosed(),
		func(next domain.ScheduledNotice) Verdict {
			return LoanNextRecurrenceRelevance(next, loan)
		})
}

func (h *loanNoticeHandler) GroupToken() string {
	return groupTokenLoans
}
