package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountStatusOpen   = "Open"
	AccountStatusClosed = "Closed"

	PaymentStatusOutstanding = "Outstanding"
)

const (
	FeeFineTypeLostItemFee           = "Lost item fee"
	FeeFineTypeLostItemProcessingFee = "Lost item processing fee"
	FeeFineTypeLostItemActualCost    = "Lost item fee (actual cost)"
	FeeFineTypeReminderFee           = "Reminder fee"
)

// LostItemFeeTypes are the fee types whose presence suppresses aged to lost notices
var LostItemFeeTypes = []string{
	FeeFineTypeLostItemFee,
	FeeFineTypeLostItemProcessingFee,
	FeeFineTypeLostItemActualCost,
}

// Account is a fee/fine charged to a patron
type Account struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	LoanID        uuid.NullUUID   `json:"loanId" db:"loan_id"`
	ItemID        uuid.NullUUID   `json:"itemId" db:"item_id"`
	FeeFineType   string          `json:"feeFineType" db:"fee_fine_type"`
	FeeFineOwner  string          `json:"feeFineOwner" db:"fee_fine_owner"`
	Title         string          `json:"title" db:"title"`
	Barcode       string          `json:"barcode" db:"barcode"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Remaining     decimal.Decimal `json:"remaining" db:"remaining"`
	Status        string          `json:"status" db:"status"`
	PaymentStatus string          `json:"paymentStatus" db:"payment_status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

func (a Account) IsOpen() bool {
	return a.Status == AccountStatusOpen
}

// FeeFineAction is a single charge, payment or adjustment on an account
type FeeFineAction struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	AccountID  uuid.UUID       `json:"accountId" db:"account_id"`
	UserID     uuid.UUID       `json:"userId" db:"user_id"`
	TypeAction string          `json:"typeAction" db:"type_action"`
	Amount     decimal.Decimal `json:"amountAction" db:"amount_action"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	Comments   string          `json:"comments" db:"comments"`
	Source     string          `json:"source" db:"source"`
	DateAction time.Time       `json:"dateAction" db:"date_action"`
}
