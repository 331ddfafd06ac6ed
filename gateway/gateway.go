// Package gateway is the engine's only I/O boundary: the external calendar
// provider behind a narrow interface so the state machine and extraction
// logic stay synchronous and testable.
package gateway

import (
	"context"
	"time"

	"meetsy/models"
)

// CalendarGateway is the consumed calendar provider contract. Every call may
// fail with a transport-level error; retry and backoff policy belongs to the
// booking engine, not here. Callers bound each call with a context timeout
// and treat expiry as GatewayUnavailable.
type CalendarGateway interface {
	// GetBusyIntervals returns the occupied ranges for the given attendee
	// calendars within [start, end).
	GetBusyIntervals(ctx context.Context, attendeeIDs []string, start, end time.Time) ([]models.BusyInterval, error)

	// CreateEvent books the event and returns the provider event id. The
	// request ID is an idempotency key: creating the same request twice
	// must not produce two events.
	CreateEvent(ctx context.Context, req models.BookingRequest) (string, error)

	// ModifyEvent updates an existing event in place.
	ModifyEvent(ctx context.Context, eventID string, req models.BookingRequest) error

	// CancelEvent removes an existing event.
	CancelEvent(ctx context.Context, eventID string) error
}
