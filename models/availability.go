package models

import "time"

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two intervals share any time.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Intersect returns the shared sub-interval, or false when disjoint.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// BusyInterval is one occupied range on an attendee's calendar.
type BusyInterval struct {
	Interval
	EventID    string `json:"eventId,omitempty"`
	AttendeeID string `json:"attendeeId,omitempty"`
}

// AvailabilityWindow is an interval verified free for all requested
// attendees. Provenance lists the calendar identifiers consulted.
type AvailabilityWindow struct {
	Interval
	Provenance []string `json:"provenance,omitempty"`
}

// Conflict records an overlap between a proposed window and an existing
// event, with the offending event and the exact overlapping sub-interval.
type Conflict struct {
	EventID    string   `json:"eventId"`
	AttendeeID string   `json:"attendeeId,omitempty"`
	Overlap    Interval `json:"overlap"`
}

// AvailabilityResult is the resolver's answer for one candidate window:
// either the window itself confirmed free, or the conflicts plus ranked
// nearby alternatives of equal duration.
type AvailabilityResult struct {
	Window       AvailabilityWindow   `json:"window"`
	Conflicts    []Conflict           `json:"conflicts,omitempty"`
	Alternatives []AvailabilityWindow `json:"alternatives,omitempty"`
}

// Free reports whether the requested window itself is conflict-free.
func (r AvailabilityResult) Free() bool {
	return len(r.Conflicts) == 0
}
