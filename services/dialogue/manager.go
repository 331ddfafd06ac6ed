// Package dialogue owns the per-session state machine: slot accumulation,
// clarification choices, and the transitions between collecting, proposing,
// awaiting confirmation, and the terminal states.
package dialogue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetsy/models"

	"github.com/google/uuid"
)

// Directive tells the engine which I/O the turn needs. The manager itself
// never touches the gateway; its decisions are pure functions of the
// session and the extraction.
type Directive int

const (
	DirectiveNone Directive = iota
	// DirectiveCheckAvailability: resolve the completed slot set against
	// the calendar and feed the result back through ApplyAvailability.
	DirectiveCheckAvailability
	// DirectiveSubmitBooking: submit session.Pending to the gateway.
	DirectiveSubmitBooking
	// DirectiveAnswerQuery: list free windows for QueryDate.
	DirectiveAnswerQuery
)

// StepResult is the manager's decision for one turn.
type StepResult struct {
	Reply         string
	Directive     Directive
	QueryDate     time.Time
	QueryDuration time.Duration
}

// Config is the dialogue policy.
type Config struct {
	// RequireAttendee demands at least one resolved attendee before
	// proposing; when false the requester alone is enough.
	RequireAttendee bool
	// ConfidenceThreshold below which UNKNOWN forces a clarification turn
	// with no state mutation.
	ConfidenceThreshold float64
	// RequesterID is the calendar identifier of the person talking to us.
	RequesterID string
}

// Manager drives the dialogue state machine.
type Manager struct {
	cfg Config
}

func NewManager(cfg Config) *Manager {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.5
	}
	if cfg.RequesterID == "" {
		cfg.RequesterID = "me"
	}
	return &Manager{cfg: cfg}
}

// NewSession starts a fresh conversation.
func (m *Manager) NewSession(id string, now time.Time) *models.Session {
	return &models.Session{
		ID:             id,
		RequesterID:    m.cfg.RequesterID,
		State:          models.StateCollecting,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

const helpReply = "I can help you schedule meetings, check availability, or manage your calendar. " +
	"Try something like 'Book a 30 min call with Sam tomorrow at 3pm'."

// Step advances the state machine by one turn. Any mutation happens on the
// session in place; the directive names the I/O the engine must perform.
func (m *Manager) Step(s *models.Session, ext models.Extraction, utterance string, now time.Time) StepResult {
	// An explicit cancel wins from any state, without a gateway call.
	if ext.Intent.Type == models.IntentCancel {
		s.State = models.StateCancelled
		return StepResult{Reply: "Okay, I've cancelled that. Let me know if you'd like to book something else."}
	}

	// Noise below the threshold never mutates state.
	if ext.Intent.Type == models.IntentUnknown && ext.Intent.Confidence < m.cfg.ConfidenceThreshold {
		return StepResult{Reply: m.clarifyFor(s)}
	}

	// Availability questions are answered in place, not part of the
	// booking flow.
	if ext.Intent.Type == models.IntentQuery {
		return m.queryStep(s, ext, now)
	}

	switch s.State {
	case models.StateAwaitingConfirmation:
		return m.confirmStep(s, ext)
	case models.StateProposing:
		if res, handled := m.selectionStep(s, ext, utterance); handled {
			return res
		}
		fallthrough
	default:
		return m.collectStep(s, ext)
	}
}

// collectStep merges the extracted slots and either asks for the single
// highest-priority missing slot or moves to proposing.
func (m *Manager) collectStep(s *models.Session, ext models.Extraction) StepResult {
	m.merge(&s.Slots, ext)

	if a, unresolved := s.Slots.UnresolvedAttendee(); unresolved {
		return StepResult{Reply: fmt.Sprintf("I couldn't find %q in the directory. Could you double-check the name?", a.Name)}
	}

	if missing := s.Slots.MissingSlot(m.cfg.RequireAttendee); missing != "" {
		s.State = models.StateCollecting
		s.Alternatives = nil
		s.Pending = nil
		return StepResult{Reply: m.askFor(s, missing)}
	}

	s.State = models.StateProposing
	return StepResult{Directive: DirectiveCheckAvailability}
}

// confirmStep handles turns while a proposal is waiting on a yes.
func (m *Manager) confirmStep(s *models.Session, ext models.Extraction) StepResult {
	if ext.Intent.Type == models.IntentModify || !ext.Slots.Empty() {
		// A modifying utterance routes back through collection; only the
		// targeted slot changes, everything else stays confirmed.
		if ext.Slots.ClearTarget != "" {
			m.clearSlot(&s.Slots, ext.Slots.ClearTarget)
		}
		s.Pending = nil
		s.State = models.StateCollecting
		return m.collectStep(s, ext)
	}

	switch ext.Polarity {
	case models.PolarityAffirmative:
		return StepResult{Directive: DirectiveSubmitBooking}
	case models.PolarityNegative:
		s.Pending = nil
		s.State = models.StateCollecting
		return StepResult{Reply: "No problem — what should I change? You can give me a new time, duration, or title."}
	}
	return StepResult{Reply: fmt.Sprintf("Just to confirm: %s. Shall I book it? (yes/no)", describeProposal(s))}
}

// selectionStep matches a turn against the offered alternative windows.
func (m *Manager) selectionStep(s *models.Session, ext models.Extraction, utterance string) (StepResult, bool) {
	if len(s.Alternatives) == 0 {
		return StepResult{}, false
	}

	// A fresh time expression wins over any digit in the utterance, so
	// "how about 3:30 pm" proposes 3:30 rather than picking option 3.
	if ext.Slots.Start != nil {
		for _, alt := range s.Alternatives {
			if alt.Start.Equal(*ext.Slots.Start) {
				start := alt.Start
				s.Slots.Start = &start
				s.Alternatives = nil
				return StepResult{Directive: DirectiveCheckAvailability}, true
			}
		}
		// A different time altogether re-enters proposing with the new start.
		s.Slots.Start = ext.Slots.Start
		s.Slots.PendingDate = nil
		s.Alternatives = nil
		return StepResult{Directive: DirectiveCheckAvailability}, true
	}

	if idx, ok := parseOrdinal(utterance, len(s.Alternatives)); ok {
		chosen := s.Alternatives[idx]
		start := chosen.Start
		s.Slots.Start = &start
		s.Alternatives = nil
		return StepResult{Directive: DirectiveCheckAvailability}, true
	}

	if ext.Polarity == models.PolarityNegative {
		s.Alternatives = nil
		s.State = models.StateCollecting
		m.clearSlot(&s.Slots, models.SlotStart)
		return StepResult{Reply: "Okay — when would work better for you?"}, true
	}
	return StepResult{}, false
}

// queryStep answers "when are you free" questions without leaving the
// current state.
func (m *Manager) queryStep(s *models.Session, ext models.Extraction, now time.Time) StepResult {
	day := now
	switch {
	case ext.Slots.Date != nil:
		day = *ext.Slots.Date
	case ext.Slots.Start != nil:
		day = *ext.Slots.Start
	case s.Slots.PendingDate != nil:
		day = *s.Slots.PendingDate
	}

	dur := s.Slots.Duration
	if d := ext.Slots.Duration; d != nil {
		dur = *d
	}
	if dur <= 0 {
		dur = time.Hour
	}
	return StepResult{Directive: DirectiveAnswerQuery, QueryDate: day, QueryDuration: dur}
}

// ApplyAvailability folds the resolver's answer into the session: a free
// window becomes a pending proposal awaiting confirmation; conflicts keep
// the session proposing with ranked alternatives on offer. The engine never
// moves to AWAITING_CONFIRMATION while the requested window conflicts.
func (m *Manager) ApplyAvailability(s *models.Session, result models.AvailabilityResult) string {
	if result.Free() {
		s.Pending = m.buildRequest(s)
		s.Alternatives = nil
		s.State = models.StateAwaitingConfirmation
		return fmt.Sprintf("%s is free. Shall I book it? (yes/no)", describeProposal(s))
	}

	s.State = models.StateProposing
	s.Pending = nil
	s.Alternatives = result.Alternatives
	if len(result.Alternatives) == 0 {
		m.clearSlot(&s.Slots, models.SlotStart)
		s.State = models.StateCollecting
		return "That time is taken and I couldn't find a nearby free slot. When else would work?"
	}

	var b strings.Builder
	b.WriteString("That time is taken. Here are the closest free options:")
	for i, alt := range result.Alternatives {
		fmt.Fprintf(&b, " %d) %s", i+1, formatWindow(alt))
	}
	b.WriteString(". Which one works for you?")
	return b.String()
}

// ApplyBooked finalizes the session after a confirmed gateway create.
func (m *Manager) ApplyBooked(s *models.Session, eventID string) string {
	s.State = models.StateBooked
	if s.Pending != nil {
		s.Pending.EventID = eventID
	}
	return fmt.Sprintf("Your %s has been booked for %s. 📅",
		strings.ToLower(orDefault(s.Slots.Title, "meeting")),
		formatInstant(*s.Slots.Start))
}

// buildRequest snapshots the completed slot set into a submission payload.
// The request id doubles as the idempotency key for the retry path.
func (m *Manager) buildRequest(s *models.Session) *models.BookingRequest {
	attendees := s.Slots.Attendees
	if !s.Slots.HasResolvedAttendee() {
		attendees = append([]models.Attendee{}, attendees...)
		attendees = append(attendees, models.Attendee{Name: "you", ID: m.cfg.RequesterID})
	}
	return &models.BookingRequest{
		ID:        uuid.New().String(),
		Intent:    models.IntentCreate,
		Title:     orDefault(s.Slots.Title, "Meeting"),
		Start:     *s.Slots.Start,
		Duration:  s.Slots.Duration,
		Attendees: attendees,
	}
}

// merge folds a slot diff into the accumulated set. Values are only added
// or overwritten, never partially lost.
func (m *Manager) merge(slots *models.SlotSet, ext models.Extraction) {
	d := ext.Slots
	if d.Start != nil {
		slots.Start = d.Start
		slots.PendingDate = nil
	}
	if d.Date != nil {
		if ext.Intent.Type == models.IntentModify && slots.Start != nil {
			// "move it to Friday" keeps the clock, changes the day.
			old := *slots.Start
			rebased := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(),
				old.Hour(), old.Minute(), 0, 0, old.Location())
			slots.Start = &rebased
		} else if slots.Start == nil {
			slots.PendingDate = d.Date
		}
	}
	if d.Duration != nil {
		slots.Duration = *d.Duration
	}
	if d.Title != nil && (slots.Title == "" || ext.Intent.Type == models.IntentModify) {
		slots.Title = *d.Title
	}
	for _, a := range d.Attendees {
		if !hasAttendee(slots.Attendees, a.Name) {
			slots.Attendees = append(slots.Attendees, a)
		}
	}
}

func (m *Manager) clearSlot(slots *models.SlotSet, name string) {
	switch name {
	case models.SlotStart:
		slots.Start = nil
		slots.PendingDate = nil
	case models.SlotDuration:
		slots.Duration = 0
	case models.SlotTitle:
		slots.Title = ""
	case models.SlotAttendees:
		slots.Attendees = nil
	}
}

// askFor phrases the clarifying question for the one missing slot.
func (m *Manager) askFor(s *models.Session, missing string) string {
	switch missing {
	case models.SlotStart:
		if s.Slots.PendingDate != nil {
			return fmt.Sprintf("What time on %s works for you?", s.Slots.PendingDate.Format("Monday, January 2"))
		}
		return "When would you like to meet? You can say things like 'tomorrow afternoon' or 'this Friday at 3pm'."
	case models.SlotDuration:
		return "How long should it be? For example '30 minutes' or 'an hour'."
	case models.SlotTitle:
		return "What should I call this event?"
	case models.SlotAttendees:
		return "Who should I invite?"
	}
	return helpReply
}

func (m *Manager) clarifyFor(s *models.Session) string {
	switch s.State {
	case models.StateAwaitingConfirmation:
		return fmt.Sprintf("Sorry, I didn't catch that. %s — shall I book it? (yes/no)", describeProposal(s))
	case models.StateProposing:
		return "Sorry, I didn't catch that. You can pick one of the offered times or suggest another."
	}
	return helpReply
}

func describeProposal(s *models.Session) string {
	if s.Slots.Start == nil {
		return "your meeting"
	}
	desc := fmt.Sprintf("%s on %s", orDefault(s.Slots.Title, "Meeting"), formatInstant(*s.Slots.Start))
	if s.Slots.Duration > 0 {
		desc += fmt.Sprintf(" for %s", formatDuration(s.Slots.Duration))
	}
	if names := attendeeNames(s.Slots.Attendees); names != "" {
		desc += " with " + names
	}
	return desc
}

// The digit must stand alone: "3" in "3:30" or "3pm" is part of a time
// expression, not a pick.
var ordinalRe = regexp.MustCompile(`(?:^|\s)(?:option\s+)?(\d)(?:[\s.,!?]|$)`)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3,
}

// parseOrdinal reads an alternative choice out of the utterance, 0-based.
func parseOrdinal(utterance string, n int) (int, bool) {
	lower := strings.ToLower(utterance)
	for word, idx := range ordinalWords {
		if strings.Contains(lower, word) && idx <= n {
			return idx - 1, true
		}
	}
	if m := ordinalRe.FindStringSubmatch(lower); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err == nil && idx >= 1 && idx <= n {
			return idx - 1, true
		}
	}
	return 0, false
}

func formatWindow(w models.AvailabilityWindow) string {
	return fmt.Sprintf("%s–%s", w.Start.Format("Mon Jan 2 3:04 PM"), w.End.Format("3:04 PM"))
}

func formatInstant(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}

func attendeeNames(attendees []models.Attendee) string {
	var names []string
	for _, a := range attendees {
		names = append(names, a.Name)
	}
	return strings.Join(names, " and ")
}

func hasAttendee(attendees []models.Attendee, name string) bool {
	for _, a := range attendees {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
