package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsDateOverdue checks if a due date has passed at now
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}

// FormatAmount renders a monetary amount with two decimals
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
