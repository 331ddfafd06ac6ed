package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can decide between
// clarification, retry, and giving up.
type ErrorKind string

const (
	KindUnresolvableTime   ErrorKind = "unresolvableTime"
	KindAmbiguousSlot      ErrorKind = "ambiguousSlot"
	KindGatewayUnavailable ErrorKind = "gatewayUnavailable"
	KindBookingFailed      ErrorKind = "bookingFailed"
	KindSessionExpired     ErrorKind = "sessionExpired"
)

// Error is the typed error carried across the engine's service boundaries.
type Error struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, msg string) *Error {
	return &Error{
		Kind:      kind,
		Message:   msg,
		Retryable: kind == KindGatewayUnavailable,
	}
}

func NewErrorf(kind ErrorKind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// KindOf extracts the ErrorKind from an error chain, or "" when the error
// carries no engine classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the error is transient per the engine taxonomy.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
