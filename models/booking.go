package models

import "time"

// BookingRequest is the fully resolved payload submitted to the calendar
// gateway. ID doubles as the idempotency key: a retried submission reuses the
// same ID so a create whose first attempt actually landed is a provider-side
// no-op.
type BookingRequest struct {
	ID        string        `json:"id" bson:"id"`
	Intent    IntentType    `json:"intent" bson:"intent"`
	Title     string        `json:"title" bson:"title"`
	Start     time.Time     `json:"start" bson:"start"`
	Duration  time.Duration `json:"duration" bson:"duration"`
	Attendees []Attendee    `json:"attendees" bson:"attendees"`
	EventID   string        `json:"eventId,omitempty" bson:"eventId,omitempty"`
}

// End returns the event end instant.
func (r BookingRequest) End() time.Time {
	return r.Start.Add(r.Duration)
}

// AttendeeIDs returns the resolved directory identifiers.
func (r BookingRequest) AttendeeIDs() []string {
	ids := make([]string, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// BookingRecord is the persisted history entry for a confirmed booking.
type BookingRecord struct {
	BookingID   string    `json:"bookingId" bson:"bookingId"`
	SessionID   string    `json:"sessionId" bson:"sessionId"`
	RequesterID string    `json:"requesterId" bson:"requesterId"`
	EventID     string    `json:"eventId" bson:"eventId"`
	Title       string    `json:"title" bson:"title"`
	Start       time.Time `json:"start" bson:"start"`
	End         time.Time `json:"end" bson:"end"`
	Attendees   []string  `json:"attendees" bson:"attendees"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
