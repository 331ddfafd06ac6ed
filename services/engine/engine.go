// Package engine orchestrates a single conversation turn: extraction,
// dialogue transitions, availability checks, and the final gateway
// submission with its retry policy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetsy/database/repository/records"
	"meetsy/gateway"
	"meetsy/models"
	"meetsy/services/availability"
	"meetsy/services/dialogue"
	"meetsy/services/extractor"
	"meetsy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the booking engine entry point consumed by the chat transport.
type Engine struct {
	Store        dialogue.Store
	Manager      *dialogue.Manager
	Extractor    extractor.Extractor
	Availability *availability.Resolver
	Gateway      gateway.CalendarGateway
	Records      records.Repository // optional booking history

	// IdleTimeout after which a session refuses further turns.
	IdleTimeout time.Duration
	// GatewayTimeout bounds each submission call.
	GatewayTimeout time.Duration
	// RetryBackoff is the pause before the single automatic retry.
	RetryBackoff time.Duration

	// Clock is swappable in tests.
	Clock func() time.Time

	locks keyMutex
}

// HandleTurn processes one utterance for one session, strictly serialized
// per session id. The returned error is only non-nil for conditions the
// transport should surface as a failure (expired session, internal fault);
// everything else, including gateway trouble, degrades to a reply.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, utterance string) (models.TurnResponse, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	unlock := e.locks.lock(sessionID)
	defer unlock()

	now := e.now()

	sess, err := e.Store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, dialogue.ErrNotFound):
		sess = e.Manager.NewSession(sessionID, now)
	case err != nil:
		return models.TurnResponse{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	case sess.State.Terminal():
		// Terminal sessions are never reopened.
		_ = e.Store.Delete(ctx, sessionID)
		return models.TurnResponse{}, models.NewErrorf(models.KindSessionExpired,
			"session %s is finished; start a new conversation", sessionID)
	case sess.Expired(now, e.IdleTimeout):
		_ = e.Store.Delete(ctx, sessionID)
		return models.TurnResponse{}, models.NewErrorf(models.KindSessionExpired,
			"session %s expired after inactivity", sessionID)
	}

	reply := e.processTurn(ctx, sess, utterance, now)

	sess.Touch(utterance, reply, now)
	if sess.State.Terminal() {
		// Terminated on booking or cancellation; a new session starts fresh.
		if err := e.Store.Delete(ctx, sessionID); err != nil {
			utils.GetLogger().Warn("failed to delete finished session",
				zap.String("sessionId", sessionID), zap.Error(err))
		}
	} else if err := e.Store.Save(ctx, sess); err != nil {
		return models.TurnResponse{}, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	resp := models.TurnResponse{
		SessionID:    sessionID,
		Reply:        reply,
		State:        sess.State,
		Done:         sess.State.Terminal(),
		Alternatives: sess.Alternatives,
	}
	if sess.Pending != nil && sess.Pending.EventID != "" {
		resp.EventID = sess.Pending.EventID
	}
	return resp, nil
}

func (e *Engine) processTurn(ctx context.Context, sess *models.Session, utterance string, now time.Time) string {
	ext, advisory := e.Extractor.Extract(ctx, utterance, sess.Slots, now)
	if advisory != nil {
		// Unresolvable or ambiguous slots degrade to a clarifying question,
		// never abort the session.
		switch models.KindOf(advisory) {
		case models.KindUnresolvableTime:
			return "I couldn't work out that date or time. Could you try something like 'tomorrow at 3pm'?"
		case models.KindAmbiguousSlot:
			return "That could mean a few different things — could you be more specific?"
		default:
			utils.GetLogger().Warn("extraction failed", zap.Error(advisory))
			return "Sorry, I didn't understand that. Could you rephrase?"
		}
	}

	res := e.Manager.Step(sess, ext, utterance, now)

	switch res.Directive {
	case dialogue.DirectiveCheckAvailability:
		return e.checkAvailability(ctx, sess, now)
	case dialogue.DirectiveSubmitBooking:
		return e.submitBooking(ctx, sess)
	case dialogue.DirectiveAnswerQuery:
		return e.answerQuery(ctx, sess, res.QueryDate, res.QueryDuration, now)
	}
	return res.Reply
}

func (e *Engine) checkAvailability(ctx context.Context, sess *models.Session, now time.Time) string {
	result, err := e.Availability.Check(ctx, *sess.Slots.Start, sess.Slots.Duration, e.participantsOf(sess), now)
	if err != nil {
		utils.GetLogger().Warn("availability check failed",
			zap.String("sessionId", sess.ID), zap.Error(err))
		return "I couldn't reach the calendar service just now. Please try again in a moment."
	}
	return e.Manager.ApplyAvailability(sess, result)
}

// submitBooking issues the gateway action for the pending request, retrying
// exactly once with backoff. The retry reuses the same request id, so an
// attempt whose outcome was unknown but actually landed is a provider-side
// no-op rather than a second event (at most once on success).
func (e *Engine) submitBooking(ctx context.Context, sess *models.Session) string {
	req := sess.Pending
	if req == nil {
		sess.State = models.StateCollecting
		return "I lost track of the proposal — when would you like to meet?"
	}

	eventID, err := e.submitOnce(ctx, *req)
	if err != nil && models.IsRetryable(err) {
		utils.GetLogger().Warn("booking submission failed, retrying once",
			zap.String("sessionId", sess.ID), zap.String("requestId", req.ID), zap.Error(err))
		select {
		case <-time.After(e.RetryBackoff):
		case <-ctx.Done():
		}
		eventID, err = e.submitOnce(ctx, *req)
	}
	if err != nil {
		// Slots and the pending request stay intact; the user only has to
		// confirm again, not re-enter anything.
		utils.GetLogger().Error("booking failed after retry",
			zap.String("sessionId", sess.ID), zap.String("requestId", req.ID), zap.Error(err))
		sess.State = models.StateAwaitingConfirmation
		return "I couldn't complete the booking — the calendar service isn't responding. " +
			"Your details are saved; say 'yes' to try again."
	}

	reply := e.Manager.ApplyBooked(sess, eventID)
	e.recordBooking(ctx, sess, eventID)
	return reply
}

func (e *Engine) submitOnce(ctx context.Context, req models.BookingRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.GatewayTimeout)
	defer cancel()

	var (
		eventID string
		err     error
	)
	switch req.Intent {
	case models.IntentModify:
		err = e.Gateway.ModifyEvent(callCtx, req.EventID, req)
		eventID = req.EventID
	case models.IntentCancel:
		err = e.Gateway.CancelEvent(callCtx, req.EventID)
		eventID = req.EventID
	default:
		eventID, err = e.Gateway.CreateEvent(callCtx, req)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", models.NewError(models.KindGatewayUnavailable, "calendar submission timed out")
		}
		if models.KindOf(err) == "" {
			return "", models.NewErrorf(models.KindBookingFailed, "calendar submission failed: %v", err)
		}
		return "", err
	}
	return eventID, nil
}

func (e *Engine) answerQuery(ctx context.Context, sess *models.Session, day time.Time, dur time.Duration, now time.Time) string {
	windows, err := e.Availability.DayWindows(ctx, day, dur, e.participantsOf(sess), now)
	if err != nil {
		return "I couldn't reach the calendar service just now. Please try again in a moment."
	}
	if len(windows) == 0 {
		return fmt.Sprintf("I don't see any free slots on %s. Would you like to check another day?",
			day.Format("Monday, January 2"))
	}

	shown := windows
	if len(shown) > 4 {
		shown = shown[:4]
	}
	var times []string
	for _, w := range shown {
		times = append(times, w.Start.Format("3:04 PM"))
	}
	return fmt.Sprintf("On %s I have these free slots: %s. Would you like to book one?",
		day.Format("Monday, January 2"), strings.Join(times, ", "))
}

// participantsOf returns the calendars to consult: the resolved attendees
// plus the requester's own.
func (e *Engine) participantsOf(sess *models.Session) []models.Attendee {
	out := append([]models.Attendee{}, sess.Slots.Attendees...)
	if sess.RequesterID != "" {
		found := false
		for _, a := range out {
			if a.ID == sess.RequesterID {
				found = true
				break
			}
		}
		if !found {
			out = append(out, models.Attendee{Name: "you", ID: sess.RequesterID})
		}
	}
	return out
}

func (e *Engine) recordBooking(ctx context.Context, sess *models.Session, eventID string) {
	if e.Records == nil || sess.Pending == nil {
		return
	}
	record := models.BookingRecord{
		BookingID:   sess.Pending.ID,
		SessionID:   sess.ID,
		RequesterID: sess.RequesterID,
		EventID:     eventID,
		Title:       sess.Pending.Title,
		Start:       sess.Pending.Start,
		End:         sess.Pending.End(),
		Attendees:   sess.Pending.AttendeeIDs(),
		CreatedAt:   e.now(),
	}
	if err := e.Records.Save(ctx, record); err != nil {
		utils.GetLogger().Warn("failed to persist booking record",
			zap.String("bookingId", record.BookingID), zap.Error(err))
	}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}
