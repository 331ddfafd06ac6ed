package models

import "time"

// DialogueState is the per-session finite-state machine position.
type DialogueState string

const (
	StateCollecting           DialogueState = "COLLECTING"
	StateProposing            DialogueState = "PROPOSING"
	StateAwaitingConfirmation DialogueState = "AWAITING_CONFIRMATION"
	StateBooked               DialogueState = "BOOKED"
	StateCancelled            DialogueState = "CANCELLED"
)

// Terminal reports whether the state accepts no further turns.
func (s DialogueState) Terminal() bool {
	return s == StateBooked || s == StateCancelled
}

// Turn is one utterance/response exchange within a session.
type Turn struct {
	Utterance string    `json:"utterance"`
	Response  string    `json:"response"`
	At        time.Time `json:"at"`
}

// Session holds the full context of one ongoing conversation. It is owned by
// the dialogue manager and mutated strictly turn by turn.
type Session struct {
	ID             string               `json:"sessionId"`
	RequesterID    string               `json:"requesterId"`
	Turns          []Turn               `json:"turns,omitempty"`
	Slots          SlotSet              `json:"slots"`
	State          DialogueState        `json:"state"`
	Alternatives   []AvailabilityWindow `json:"alternatives,omitempty"`
	Pending        *BookingRequest      `json:"pending,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	LastActivityAt time.Time            `json:"lastActivityAt"`
}

// Touch records activity and appends the finished turn.
func (s *Session) Touch(utterance, response string, now time.Time) {
	s.Turns = append(s.Turns, Turn{Utterance: utterance, Response: response, At: now})
	s.LastActivityAt = now
}

// Expired reports whether the session has sat idle past the timeout.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	return idle > 0 && now.Sub(s.LastActivityAt) > idle
}

// TurnResponse is what the engine hands back to the chat transport for one
// processed utterance.
type TurnResponse struct {
	SessionID    string               `json:"sessionId"`
	Reply        string               `json:"reply"`
	State        DialogueState        `json:"state"`
	Done         bool                 `json:"done"`
	EventID      string               `json:"eventId,omitempty"`
	Alternatives []AvailabilityWindow `json:"alternatives,omitempty"`
}
