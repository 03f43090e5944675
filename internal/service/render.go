package service

import (
	"time"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/pkg/utils"
)

const (
	groupTokenLoans      = "loans"
	groupTokenRequests   = "requests"
	groupTokenFeeCharges = "feeCharges"
)

func userPayload(u *domain.User) domain.Payload {
	if u == nil {
		return nil
	}
	return domain.Payload{
		"id":        u.ID.String(),
		"barcode":   u.Barcode,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
	}
}

func itemPayload(i *domain.Item) domain.Payload {
	if i == nil {
		return nil
	}
	return domain.Payload{
		"id":      i.ID.String(),
		"barcode": i.Barcode,
		"title":   i.Title,
		"status":  string(i.Status),
	}
}

func loanPayload(l domain.Loan) domain.Payload {
	p := domain.Payload{
		"id":       l.ID.String(),
		"loanDate": l.LoanDate.Format(time.RFC3339),
		"dueDate":  l.DueDate.Format(time.RFC3339),
		"status":   l.Status,
	}
	if l.LastFeeBilled != nil {
		p["lastReminderNumber"] = l.LastFeeBilled.Number
	}
	return p
}

func requestPayload(r domain.Request) domain.Payload {
	p := domain.Payload{
		"id":           r.ID.String(),
		"requestType":  r.RequestType,
		"requestLevel": r.RequestLevel,
		"status":       string(r.Status),
		"requestDate":  r.RequestDate.Format(time.RFC3339),
	}
	if r.RequestExpirationDate != nil {
		p["requestExpirationDate"] = r.RequestExpirationDate.Format(time.RFC3339)
	}
	if r.HoldShelfExpirationDate != nil {
		p["holdShelfExpirationDate"] = r.HoldShelfExpirationDate.Format(time.RFC3339)
	}
	return p
}

func feeChargePayload(a domain.Account, charge *domain.FeeFineAction) domain.Payload {
	p := domain.Payload{
		"id":               a.ID.String(),
		"type":             a.FeeFineType,
		"owner":            a.FeeFineOwner,
		"amount":           utils.FormatAmount(a.Amount),
		"remainingAmount":  utils.FormatAmount(a.Remaining),
		"paymentStatus":    a.PaymentStatus,
		"chargeDate":       a.CreatedAt.Format(time.RFC3339),
		"additionalInfo":   "",
		"chargeActionDate": "",
	}
	if charge != nil {
		p["additionalInfo"] = charge.Comments
		p["chargeActionDate"] = charge.DateAction.Format(time.RFC3339)
	}
	return p
}

func feeActionPayload(a domain.FeeFineAction) domain.Payload {
	return domain.Payload{
		"type":       a.TypeAction,
		"actionDate": a.DateAction.Format(time.RFC3339),
		"amount":     utils.FormatAmount(a.Amount),
		"balance":    utils.FormatAmount(a.Balance),
		"comments":   a.Comments,
	}
}

// groupedPayload merges the member entries of a group under token, next to the recipient
func groupedPayload(recipient *domain.User, token string, entries []domain.Payload) domain.Payload {
	list := make([]domain.Payload, len(entries))
	copy(list, entries)
	return domain.Payload{
		"user": userPayload(recipient),
		token:  list,
	}
}
