package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRecordNotFound            = errors.New("record not found")
	ErrTemplateNotFound          = errors.New("template not found")
	ErrNoScheduledReminder       = errors.New("no scheduled reminder")
	ErrIncompleteRequest         = errors.New("request is incomplete")
	ErrUnexpectedTriggeringEvent = errors.New("unexpected triggering event")
	ErrNoOpeningDays             = errors.New("no calendar time table found for requested date")
	ErrDispatchFailed            = errors.New("patron notice dispatch failed")
	ErrInvalidNotice             = errors.New("invalid scheduled notice")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeRecordNotFound            = "RECORD_NOT_FOUND"
	ErrCodeTemplateNotFound          = "TEMPLATE_NOT_FOUND"
	ErrCodeNoScheduledReminder       = "NO_SCHEDULED_REMINDER"
	ErrCodeIncompleteRequest         = "INCOMPLETE_REQUEST"
	ErrCodeUnexpectedTriggeringEvent = "UNEXPECTED_TRIGGERING_EVENT"
	ErrCodeNoOpeningDays             = "NO_OPENING_DAYS"
	ErrCodeDispatchFailed            = "DISPATCH_FAILED"
	ErrCodeInvalidNotice             = "INVALID_NOTICE"
	ErrCodeDatabaseError             = "DATABASE_ERROR"
	ErrCodeCacheError                = "CACHE_ERROR"
)

// Record types reported by WrapRecordNotFound
const (
	RecordLoan             = "loan"
	RecordItem             = "item"
	RecordUser             = "user"
	RecordRequest          = "request"
	RecordAccount          = "account"
	RecordFeeFineAction    = "fee/fine action"
	RecordNoticePolicy     = "notice policy"
	RecordReminderSchedule = "reminder schedule"
)

// RecordNotFoundError tags a missing record with its type
type RecordNotFoundError struct {
	*BusinessError
	RecordType string
	RecordID   string
}

func (e *RecordNotFoundError) Unwrap() error {
	return e.BusinessError
}

// WrapRecordNotFound reports that a referenced record of the given type does not exist
func WrapRecordNotFound(recordType, id string) *RecordNotFoundError {
	return &RecordNotFoundError{
		BusinessError: NewBusinessError(
			ErrCodeRecordNotFound,
			fmt.Sprintf("%s with ID %q was not found", recordType, id),
			ErrRecordNotFound,
		),
		RecordType: recordType,
		RecordID:   id,
	}
}

// MissingRecordType returns the type of the missing record carried by err, if any
func MissingRecordType(err error) (string, bool) {
	var notFound *RecordNotFoundError
	if errors.As(err, &notFound) {
		return notFound.RecordType, true
	}
	return "", false
}

func WrapTemplateNotFound(templateID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTemplateNotFound,
		fmt.Sprintf("Template with ID %s not found", templateID),
		ErrTemplateNotFound,
	)
}

func WrapNoScheduledReminder(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoScheduledReminder,
		fmt.Sprintf("next scheduled reminder not found for reminder-for-loan-%s", loanID),
		ErrNoScheduledReminder,
	)
}

func WrapIncompleteRequest(requestID, missing string) *BusinessError {
	return NewBusinessError(
		ErrCodeIncompleteRequest,
		fmt.Sprintf("Request %s has no %s", requestID, missing),
		ErrIncompleteRequest,
	)
}

func WrapUnexpectedTriggeringEvent(event string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnexpectedTriggeringEvent,
		fmt.Sprintf("Unexpected triggering event %s", event),
		ErrUnexpectedTriggeringEvent,
	)
}

func WrapNoOpeningDays(servicePointID, date string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoOpeningDays,
		fmt.Sprintf("No open day after %s at service point %s", date, servicePointID),
		ErrNoOpeningDays,
	)
}

func WrapDispatchFailed(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDispatchFailed,
		"patron notice could not be sent",
		fmt.Errorf("%w: %v", ErrDispatchFailed, err),
	)
}

func WrapInvalidNotice(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidNotice,
		"scheduled notice failed validation",
		fmt.Errorf("%w: %v", ErrInvalidNotice, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsReferenceNotFound reports whether err means the notice points at something that
// no longer exists. Such notices are deleted rather than retried.
func IsReferenceNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrNoScheduledReminder) ||
		errors.Is(err, ErrIncompleteRequest)
}
