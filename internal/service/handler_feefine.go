package service

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// feeFineNoticeHandler handles notices about charges and automatic adjustments
type feeFineNoticeHandler struct {
	HandlerDeps
}

func newFeeFineNoticeHandler(deps HandlerDeps) *feeFineNoticeHandler {
	return &feeFineNoticeHandler{HandlerDeps: deps}
}

func (h *feeFineNoticeHandler) Fetch(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error) {
	notice := nc.Notice
	if !notice.HasFeeFineAction() {
		return nc, customError.WrapRecordNotFound(customError.RecordFeeFineAction, "")
	}

	if err := h.fetchTemplate(ctx, nc); err != nil {
		return nc, err
	}

	action, err := h.Actions.FindByID(ctx, notice.FeeFineActionID)
	if err != nil {
		return nc, err
	}
	nc = nc.WithAction(action)

	// a missing account is judged by relevance, not reported
	account, err := h.Accounts.FindByID(ctx, action.AccountID)
	switch {
	case errors.Is(err, customError.ErrRecordNotFound):
		return nc, nil
	case err != nil:
		return nc, err
	}
	nc = nc.WithAccount(account)

	charge, err := h.Actions.FindChargeForAccount(ctx, account.ID)
	if err != nil {
		return nc, err
	}
	nc = nc.WithChargeAction(charge)

	if h.IsIrrelevant(nc, now).Irrelevant {
		return nc, nil
	}

	// the loan carries the patron the notice goes to
	if !account.LoanID.Valid {
		return nc, customError.WrapRecordNotFound(customError.RecordLoan, "for account "+account.ID.String())
	}
	loan, err := h.fetchLoan(ctx, account.LoanID.UUID)
	if err != nil {
		return nc, err
	}
	nc = nc.WithLoan(loan)

	policyID, err := h.lookupPolicy(ctx, loan.User, loan.Item)
	if err != nil {
		return nc, err
	}

	return nc.WithNoticePolicyID(policyID), nil
}

func (h *feeFineNoticeHandler) IsIrrelevant(nc domain.NoticeContext, now time.Time) Verdict {
	return FeeFineNoticeRelevance(nc.Notice, nc.Account)
}

func (h *feeFineNoticeHandler) RenderContext(nc domain.NoticeContext) domain.Payload {
	p := domain.Payload{
		"feeCharge": feeChargePayload(*nc.Account, nc.ChargeAction),
	}
	if nc.Notice.TriggeringEvent.IsAutomaticFeeFineAdjustment() && nc.Action != nil {
		p["feeAction"] = feeActionPayload(*nc.Action)
	}
	if nc.Loan != nil {
		p["loan"] = loanPayload(*nc.Loan)
		p["item"] = itemPayload(nc.Loan.Item)
	}
	return p
}

func (h *feeFineNoticeHandler) LogFragment(nc domain.NoticeContext, now time.Time) domain.NoticeLog {
	item := loanLogItem(nc)
	if nc.Account != nil {
		item.FeeFineID = nc.Account.ID
		if nc.Loan == nil && nc.Account.ItemID.Valid {
			item.ItemID = nc.Account.ItemID.UUID
		}
	}
	return noticeLog(nc, now, item)
}

func (h *feeFineNoticeHandler) Reschedule(nc domain.NoticeContext, now time.Time) Outcome {
	return RescheduleRecurring(nc.Notice, now, h.IsIrrelevant(nc, now), false, nil)
}

func (h *feeFineNoticeHandler) GroupToken() string {
	return groupTokenFeeCharges
}
