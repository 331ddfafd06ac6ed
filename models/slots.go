package models

import "time"

// Slot names, in clarification priority order (start > duration > title > attendees).
const (
	SlotStart     = "start"
	SlotDuration  = "duration"
	SlotTitle     = "title"
	SlotAttendees = "attendees"
)

// Attendee is a participant slot value. Name is the raw text the user gave;
// ID is the directory identifier once resolved. Unresolved attendees keep
// NeedsResolution set so the dialogue can ask the user to clarify.
type Attendee struct {
	Name            string `json:"name"`
	ID              string `json:"id,omitempty"`
	NeedsResolution bool   `json:"needsResolution,omitempty"`
}

// SlotSet holds the booking information accumulated across turns. Zero values
// mean unset (Start nil, Duration 0, Title "", Attendees empty).
// PendingDate remembers a date given without a time of day; the start slot
// still counts as missing until the clock arrives.
type SlotSet struct {
	Title       string        `json:"title,omitempty"`
	Start       *time.Time    `json:"start,omitempty"`
	PendingDate *time.Time    `json:"pendingDate,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Attendees   []Attendee    `json:"attendees,omitempty"`
}

// SlotDiff is the partial SlotSet extracted from a single utterance.
// ClearTarget names a slot a MODIFY intent wants re-collected when the
// utterance gives no replacement value ("change the time").
type SlotDiff struct {
	Title       *string        `json:"title,omitempty"`
	Start       *time.Time     `json:"start,omitempty"`
	Date        *time.Time     `json:"date,omitempty"`
	Duration    *time.Duration `json:"duration,omitempty"`
	Attendees   []Attendee     `json:"attendees,omitempty"`
	ClearTarget string         `json:"clearTarget,omitempty"`
}

// Empty reports whether the diff carries no values at all.
func (d SlotDiff) Empty() bool {
	return d.Title == nil && d.Start == nil && d.Date == nil && d.Duration == nil &&
		len(d.Attendees) == 0 && d.ClearTarget == ""
}

// End returns the end instant implied by start+duration, or the zero time
// when either is unset.
func (s SlotSet) End() time.Time {
	if s.Start == nil || s.Duration <= 0 {
		return time.Time{}
	}
	return s.Start.Add(s.Duration)
}

// HasResolvedAttendee reports whether at least one attendee carries a
// directory identifier.
func (s SlotSet) HasResolvedAttendee() bool {
	for _, a := range s.Attendees {
		if a.ID != "" && !a.NeedsResolution {
			return true
		}
	}
	return false
}

// UnresolvedAttendee returns the first attendee still waiting on directory
// resolution, if any.
func (s SlotSet) UnresolvedAttendee() (Attendee, bool) {
	for _, a := range s.Attendees {
		if a.NeedsResolution {
			return a, true
		}
	}
	return Attendee{}, false
}

// MissingSlot returns the highest-priority unset slot, or "" when the set is
// complete. Attendees only count as missing when requireAttendee is set;
// otherwise the requester alone is an acceptable default.
func (s SlotSet) MissingSlot(requireAttendee bool) string {
	if s.Start == nil {
		return SlotStart
	}
	if s.Duration <= 0 {
		return SlotDuration
	}
	if s.Title == "" {
		return SlotTitle
	}
	if requireAttendee && !s.HasResolvedAttendee() {
		return SlotAttendees
	}
	return ""
}

// Complete reports whether every required slot is filled.
func (s SlotSet) Complete(requireAttendee bool) bool {
	return s.MissingSlot(requireAttendee) == ""
}
