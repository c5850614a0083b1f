package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation malformed or missing input, see ValidationError for field messages
	ErrValidation = errors.New("validation failed")

	// ErrCapacity guest count exceeds capacity or a date is fully booked or under maintenance
	ErrCapacity = errors.New("capacity exceeded")

	// ErrAuthorization actor does not own or administer the booking
	ErrAuthorization = errors.New("not authorized")

	// ErrInvalidTransition status is not reachable from the current one
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRefundWindowExpired refund deadline has passed
	ErrRefundWindowExpired = errors.New("refund window expired")

	// ErrAlreadyRefunded a refund already exists for the booking
	ErrAlreadyRefunded = errors.New("booking already refunded")

	// ErrNoPayment booking has no completed payment
	ErrNoPayment = errors.New("booking has no completed payment")

	// ErrTransaction downstream failure inside an atomic operation, safe to retry
	ErrTransaction = errors.New("transaction failed, try again")

	// ErrBookingNotFound booking does not exist
	ErrBookingNotFound = errors.New("booking not found")

	// ErrResourceNotFound resource does not exist
	ErrResourceNotFound = errors.New("resource not found")

	// ErrRefundNotFound refund does not exist
	ErrRefundNotFound = errors.New("refund not found")
)

// ValidationError field-level validation messages
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field, the first message wins
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors returns true if at least one field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns the error if it carries fields and nil otherwise
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsDomainError returns true for errors that must reach the caller unchanged
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrCapacity,
		ErrAuthorization,
		ErrInvalidTransition,
		ErrRefundWindowExpired,
		ErrAlreadyRefunded,
		ErrNoPayment,
		ErrTransaction,
		ErrBookingNotFound,
		ErrResourceNotFound,
		ErrRefundNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AsTransactionError keeps domain errors and turns anything else into ErrTransaction
func AsTransactionError(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransaction, err)
}
