package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	LoanStatusOpen   = "Open"
	LoanStatusClosed = "Closed"
)

const (
	LoanActionCheckedOut             = "checkedout"
	LoanActionRenewed                = "renewed"
	LoanActionRenewedThroughOverride = "renewedThroughOverride"
	LoanActionDeclaredLost           = "declaredLost"
	LoanActionClaimedReturned        = "claimedReturned"
)

// ItemStatus is the circulation status of an item
type ItemStatus string

const (
	ItemStatusAvailable       ItemStatus = "Available"
	ItemStatusCheckedOut      ItemStatus = "Checked out"
	ItemStatusDeclaredLost    ItemStatus = "Declared lost"
	ItemStatusAgedToLost      ItemStatus = "Aged to lost"
	ItemStatusClaimedReturned ItemStatus = "Claimed returned"
)

// ItemStatusSet is a named group of item statuses used by relevance rules
type ItemStatusSet map[ItemStatus]struct{}

func NewItemStatusSet(statuses ...ItemStatus) ItemStatusSet {
	set := make(ItemStatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s ItemStatusSet) Contains(status ItemStatus) bool {
	_, ok := s[status]
	return ok
}

// renewalActions mark a loan as renewed since its notices were scheduled
var renewalActions = map[string]struct{}{
	LoanActionRenewed:                {},
	LoanActionRenewedThroughOverride: {},
}

// Item represents the loaned item
type Item struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Barcode             string     `json:"barcode" db:"barcode"`
	Title               string     `json:"title" db:"title"`
	Status              ItemStatus `json:"status" db:"status"`
	InstanceID          uuid.UUID  `json:"instanceId" db:"instance_id"`
	EffectiveLocationID uuid.UUID  `json:"effectiveLocationId" db:"effective_location_id"`
}

func (i Item) IsClaimedReturned() bool {
	return i.Status == ItemStatusClaimedReturned
}

// User represents a patron
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Barcode       string    `json:"barcode" db:"barcode"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	PatronGroupID uuid.UUID `json:"patronGroupId" db:"patron_group_id"`
}

// LastFeeBilled records the most recent reminder fee step billed for a loan
type LastFeeBilled struct {
	Number int       `json:"number"`
	Date   time.Time `json:"date"`
}

// Loan represents a loan together with the item and borrower it references.
// Item and User are nil when the referenced record no longer exists.
type Loan struct {
	ID                     uuid.UUID      `json:"id"`
	UserID                 uuid.UUID      `json:"userId"`
	ItemID                 uuid.UUID      `json:"itemId"`
	Status                 string         `json:"status"`
	Action                 string         `json:"action"`
	LoanDate               time.Time      `json:"loanDate"`
	DueDate                time.Time      `json:"dueDate"`
	DueDateChanged         bool           `json:"dueDateChanged"`
	CheckoutServicePointID uuid.UUID      `json:"checkoutServicePointId"`
	OverdueFinePolicyID    uuid.UUID      `json:"overdueFinePolicyId"`
	LastFeeBilled          *LastFeeBilled `json:"lastFeeBilled,omitempty"`
	Item                   *Item          `json:"item,omitempty"`
	User                   *User          `json:"user,omitempty"`
}

func (l Loan) IsClosed() bool {
	return l.Status == LoanStatusClosed
}

func (l Loan) IsRenewed() bool {
	_, ok := renewalActions[l.Action]
	return ok
}

func (l Loan) IsDeclaredLost() bool {
	return l.Item != nil && l.Item.Status == ItemStatusDeclaredLost
}

// ItemStatus returns the status of the loaned item, or "" when the item is missing
func (l Loan) ItemStatus() ItemStatus {
	if l.Item == nil {
		return ""
	}
	return l.Item.Status
}

// LastReminderNumber is the sequence number of the last billed reminder, 0 when none
func (l Loan) LastReminderNumber() int {
	if l.LastFeeBilled == nil {
		return 0
	}
	return l.LastFeeBilled.Number
}

// WithReminderBilled returns a copy recording that reminder number was billed at date
func (l Loan) WithReminderBilled(number int, date time.Time) Loan {
	l.LastFeeBilled = &LastFeeBilled{Number: number, Date: date.UTC()}
	return l
}
