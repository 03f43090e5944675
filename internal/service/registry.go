package service

import (
	"sort"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// HandlerRegistry maps each triggering event to the handler that processes it
type HandlerRegistry map[domain.TriggeringEvent]EventHandler

// NewHandlerRegistry wires the built-in handlers for every known triggering event
func NewHandlerRegistry(deps HandlerDeps) HandlerRegistry {
	loans := newLoanNoticeHandler(deps)
	requests := newRequestNoticeHandler(deps)
	feeFines := newFeeFineNoticeHandler(deps)

	return HandlerRegistry{
		domain.TriggeringEventDueDate:                     loans,
		domain.TriggeringEventAgedToLost:                  loans,
		domain.TriggeringEventDueDateWithReminderFee:      newReminderFeeHandler(deps),
		domain.TriggeringEventHoldExpiration:              requests,
		domain.TriggeringEventRequestExpiration:           requests,
		domain.TriggeringEventTitleLevelRequestExpiration: requests,
		domain.TriggeringEventOverdueFineReturned:         feeFines,
		domain.TriggeringEventOverdueFineRenewed:          feeFines,
		domain.TriggeringEventAgedToLostFineCharged:       feeFines,
		domain.TriggeringEventAgedToLostReturned:          feeFines,
		domain.TriggeringEventAgedToLostReplaced:          feeFines,
	}
}

// Lookup returns the handler for event
func (r HandlerRegistry) Lookup(event domain.TriggeringEvent) (EventHandler, error) {
	h, ok := r[event]
	if !ok {
		return nil, customError.WrapUnexpectedTriggeringEvent(string(event))
	}
	return h, nil
}

// Events lists the registered triggering events in a stable order
func (r HandlerRegistry) Events() []domain.TriggeringEvent {
	events := make([]domain.TriggeringEvent, 0, len(r))
	for e := range r {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}
