package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
	"github.com/segyhp/circulation-notices/pkg/utils"
)

const reminderFeeActionSource = "System"

// reminderFeeHandler handles notices driven by an overdue-fine policy's reminder sequence
type reminderFeeHandler struct {
	HandlerDeps
}

func newReminderFeeHandler(deps HandlerDeps) *reminderFeeHandler {
	return &reminderFeeHandler{HandlerDeps: deps}
}

func (h *reminderFeeHandler) Fetch(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error) {
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

	if loan.OverdueFinePolicyID == uuid.Nil {
		return nc, customError.WrapRecordNotFound(customError.RecordReminderSchedule, "")
	}
	schedule, err := h.Reminders.GetByOverdueFinePolicyID(ctx, loan.OverdueFinePolicyID)
	if err != nil {
		return nc, err
	}

	current, ok := schedule.StepAfter(loan.LastReminderNumber())
	if !ok {
		return nc, customError.WrapNoScheduledReminder(loan.ID.String())
	}
	openToday, err := h.isOpenDay(ctx, loan.CheckoutServicePointID, now)
	if err != nil {
		return nc, err
	}
	plan := domain.ReminderPlan{Current: current, OpenToday: openToday}

	if next, ok := schedule.StepAfter(current.SequenceNumber); ok && openToday {
		runAt, err := h.reminderRunTime(ctx, schedule, loan.CheckoutServicePointID, next.Period.AddTo(now))
		if err != nil {
			return nc, err
		}
		plan.Next = &next
		plan.NextRunTime = runAt
	}
	nc = nc.WithReminderPlan(plan)

	policyID, err := h.lookupPolicy(ctx, loan.User, loan.Item)
	if err != nil {
		return nc, err
	}

	return nc.WithNoticePolicyID(policyID), nil
}

// isOpenDay reports whether the service point is open on now's day in the tenant zone
func (h *reminderFeeHandler) isOpenDay(ctx context.Context, servicePointID uuid.UUID, now time.Time) (bool, error) {
	days, err := h.Calendar.LookupOpeningDays(ctx, servicePointID, now.In(h.location()))
	if err != nil {
		return false, err
	}
	return days.Requested.Open, nil
}

func (h *reminderFeeHandler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

// reminderRunTime moves a candidate run time off closed days unless the
// schedule counts closed days.
func (h *reminderFeeHandler) reminderRunTime(ctx context.Context, schedule domain.ReminderSchedule, servicePointID uuid.UUID, candidate time.Time) (time.Time, error) {
	if schedule.CountClosed {
		return candidate, nil
	}

	loc := h.location()
	local := candidate.In(loc)

	days, err := h.Calendar.LookupOpeningDays(ctx, servicePointID, local)
	if err != nil {
		return time.Time{}, err
	}

	if days.Requested.Open {
		return candidate, nil
	}
	if days.Next.Open {
		return utils.StartOfDay(days.Next.Date, loc), nil
	}

	return time.Time{}, customError.WrapNoOpeningDays(servicePointID.String(), local.Format("2006-01-02"))
}

func (h *reminderFeeHandler) IsIrrelevant(nc domain.NoticeContext, now time.Time) Verdict {
	return ReminderFeeNoticeRelevance(*nc.Loan)
}

// HoldsSend keeps a reminder back while the checkout service point is closed
func (h *reminderFeeHandler) HoldsSend(nc domain.NoticeContext) bool {
	return nc.Reminder != nil && !nc.Reminder.OpenToday
}

func (h *reminderFeeHandler) RenderContext(nc domain.NoticeContext) domain.Payload {
	p := domain.Payload{
		"loan": loanPayload(*nc.Loan),
		"item": itemPayload(nc.Loan.Item),
	}
	if step := nc.Reminder.Current; !step.HasZeroFee() {
		p["feeCharge"] = domain.Payload{
			"type":           domain.FeeFineTypeReminderFee,
			"amount":         utils.FormatAmount(step.Fee),
			"sequenceNumber": step.SequenceNumber,
		}
	}
	return p
}

func (h *reminderFeeHandler) LogFragment(nc domain.NoticeContext, now time.Time) domain.NoticeLog {
	return noticeLog(nc, now, loanLogItem(nc))
}

// AfterSend records the billed reminder on the loan and charges its fee.
// The returned context marks the plan billed as soon as the loan was updated,
// even when charging the fee fails afterwards.
func (h *reminderFeeHandler) AfterSend(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error) {
	step := nc.Reminder.Current
	loan := nc.Loan.WithReminderBilled(step.SequenceNumber, now)

	if err := h.Loans.UpdateLastFeeBilled(ctx, loan.ID, *loan.LastFeeBilled); err != nil {
		return nc, err
	}
	nc = nc.WithLoan(loan).WithReminderPlan(nc.Reminder.MarkBilled())

	if step.HasZeroFee() {
		return nc, nil
	}

	account, charge := reminderFeeCharge(loan, step, now)
	if err := h.Accounts.CreateWithCharge(ctx, account, charge); err != nil {
		return nc, err
	}

	return nc.WithAccount(account).WithChargeAction(charge), nil
}

func reminderFeeCharge(loan domain.Loan, step domain.ReminderStep, now time.Time) (domain.Account, domain.FeeFineAction) {
	account := domain.Account{
		ID:            uuid.New(),
		UserID:        loan.UserID,
		LoanID:        uuid.NullUUID{UUID: loan.ID, Valid: true},
		ItemID:        uuid.NullUUID{UUID: loan.ItemID, Valid: true},
		FeeFineType:   domain.FeeFineTypeReminderFee,
		Title:         loan.Item.Title,
		Barcode:       loan.Item.Barcode,
		Amount:        step.Fee,
		Remaining:     step.Fee,
		Status:        domain.AccountStatusOpen,
		PaymentStatus: domain.PaymentStatusOutstanding,
		CreatedAt:     now.UTC(),
	}

	charge := domain.FeeFineAction{
		ID:         uuid.New(),
		AccountID:  account.ID,
		UserID:     loan.UserID,
		TypeAction: domain.FeeFineTypeReminderFee,
		Amount:     step.Fee,
		Balance:    step.Fee.Add(decimal.Zero),
		Source:     reminderFeeActionSource,
		DateAction: now.UTC(),
	}

	return account, charge
}

// Reschedule moves the notice to the next step only after the current one was
// billed, so the stored template always matches the loan's next reminder.
func (h *reminderFeeHandler) Reschedule(nc domain.NoticeContext, now time.Time) Outcome {
	if v := h.IsIrrelevant(nc, now); v.Irrelevant {
		return deleteOutcome("further reminder notices became irrelevant: " + v.Reason)
	}

	plan := nc.Reminder
	switch {
	case !plan.OpenToday:
		return retainOutcome("checkout service point is closed today")
	case !plan.Billed:
		return retainOutcome("reminder was not recorded on the loan")
	case plan.Next == nil:
		return deleteOutcome("no more reminders scheduled")
	}

	next := nc.Notice.
		WithNextRunTime(plan.NextRunTime).
		WithConfig(nc.Notice.Config.WithTemplate(plan.Next.TemplateID, plan.Next.Format))

	return updateOutcome(next)
}

func (h *reminderFeeHandler) GroupToken() string {
	return groupTokenLoans
}
