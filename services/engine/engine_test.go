package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"meetsy/gateway"
	"meetsy/models"
	"meetsy/services/availability"
	"meetsy/services/dialogue"
	"meetsy/services/directory"
	"meetsy/services/extractor"
	"meetsy/services/timeparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-03-02 10:00 UTC.
var baseTime = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	engine  *Engine
	gateway *gateway.MemoryGateway
	store   *dialogue.MemoryStore
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := gateway.NewMemoryGateway()
	store := dialogue.NewMemoryStore(0)
	t.Cleanup(store.Close)

	dir := directory.NewStaticResolver(map[string]string{
		"sam":   "sam@example.com",
		"priya": "priya@example.com",
	})

	f := &fixture{gateway: gw, store: store, now: baseTime}
	f.engine = &Engine{
		Store:     store,
		Manager:   dialogue.NewManager(dialogue.Config{ConfidenceThreshold: 0.5, RequesterID: "me@example.com"}),
		Extractor: extractor.NewRuleExtractor(timeparse.NewResolver(time.UTC), dir),
		Availability: availability.NewResolver(gw, availability.Config{
			Step:            15 * time.Minute,
			Horizon:         24 * time.Hour,
			Lookaround:      24 * time.Hour,
			MaxAlternatives: 3,
			GatewayTimeout:  time.Second,
		}),
		Gateway:        gw,
		IdleTimeout:    30 * time.Minute,
		GatewayTimeout: time.Second,
		RetryBackoff:   0,
		Clock:          func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) turn(t *testing.T, sessionID, text string) models.TurnResponse {
	t.Helper()
	resp, err := f.engine.HandleTurn(context.Background(), sessionID, text)
	require.NoError(t, err)
	return resp
}

func TestHappyPathBooking(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)
	assert.Contains(t, resp.Reply, "(yes/no)")

	resp = f.turn(t, resp.SessionID, "yes")
	assert.True(t, resp.Done)
	assert.Equal(t, models.StateBooked, resp.State)
	assert.NotEmpty(t, resp.EventID)
	assert.Contains(t, resp.Reply, "booked")

	assert.Equal(t, 1, f.gateway.EventCount())
	event, ok := f.gateway.Event(resp.EventID)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, 30*time.Minute, event.Duration)
}

func TestIncrementalSlotCollection(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "I need to book a meeting with Priya")
	sid := resp.SessionID
	assert.Equal(t, models.StateCollecting, resp.State)
	assert.Contains(t, resp.Reply, "When")

	resp = f.turn(t, sid, "this friday")
	assert.Contains(t, resp.Reply, "Friday")

	resp = f.turn(t, sid, "3pm")
	assert.Contains(t, resp.Reply, "How long")

	resp = f.turn(t, sid, "45 minutes")
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)
	// The bare clock answer landed on the previously named day.
	assert.Contains(t, resp.Reply, "Friday, March 6")

	resp = f.turn(t, sid, "yes")
	assert.True(t, resp.Done)

	event, ok := f.gateway.Event(resp.EventID)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 6, 15, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, 45*time.Minute, event.Duration)
}

func TestConflictThenAlternativeSelection(t *testing.T) {
	f := newFixture(t)
	busyStart := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	f.gateway.AddBusy("sam@example.com", busyStart, busyStart.Add(time.Hour))

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID
	assert.Equal(t, models.StateProposing, resp.State)
	assert.Contains(t, resp.Reply, "taken")
	require.NotEmpty(t, resp.Alternatives)

	resp = f.turn(t, sid, "the first one")
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)

	resp = f.turn(t, sid, "yes")
	assert.True(t, resp.Done)

	// The booked window does not overlap the busy block.
	event, ok := f.gateway.Event(resp.EventID)
	require.True(t, ok)
	booked := models.Interval{Start: event.Start, End: event.End()}
	assert.False(t, booked.Overlaps(models.Interval{Start: busyStart, End: busyStart.Add(time.Hour)}))
}

func TestConflictThenFreshTimeWithClockDigits(t *testing.T) {
	f := newFixture(t)
	busyStart := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	f.gateway.AddBusy("sam@example.com", busyStart, busyStart.Add(time.Hour))

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID
	require.NotEmpty(t, resp.Alternatives)

	// The lone digit in "2:30" looks like an option number; the time
	// expression must win so the booking lands at 2:30.
	resp = f.turn(t, sid, "how about tomorrow at 2:30 pm")
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)

	resp = f.turn(t, sid, "yes")
	require.True(t, resp.Done)
	event, ok := f.gateway.Event(resp.EventID)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC), event.Start)
}

func TestConflictingDayPhraseAsksToDisambiguate(t *testing.T) {
	f := newFixture(t)

	// June 5 2026 is a Friday, so naming it a Monday has two readings.
	resp := f.turn(t, "", "book a meeting with Sam on monday june 5 at 2pm")
	assert.Contains(t, resp.Reply, "could mean a few different things")
	assert.Equal(t, models.StateCollecting, resp.State)
	assert.False(t, resp.Done)
}

func TestAvailabilityQuery(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	f.gateway.AddBusy("me@example.com", day.Add(9*time.Hour), day.Add(17*time.Hour))

	resp := f.turn(t, "", "when am I free on friday?")
	assert.Contains(t, resp.Reply, "Friday, March 6")
	assert.Contains(t, resp.Reply, "5:00 PM")
	assert.Equal(t, models.StateCollecting, resp.State)
	assert.False(t, resp.Done)
}

func TestSubmitRetriesOnceWithSameRequest(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID

	// First attempt fails with a retryable error; the automatic retry lands.
	f.gateway.FailNext(1, models.NewError(models.KindGatewayUnavailable, "provider down"))
	resp = f.turn(t, sid, "yes")
	assert.True(t, resp.Done)
	assert.Equal(t, 1, f.gateway.EventCount())
}

func TestSubmitSecondFailureKeepsSessionConfirmable(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID

	f.gateway.FailNext(2, models.NewError(models.KindGatewayUnavailable, "provider down"))
	resp = f.turn(t, sid, "yes")
	assert.False(t, resp.Done)
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)
	assert.Contains(t, resp.Reply, "couldn't complete")
	assert.Equal(t, 0, f.gateway.EventCount())

	// Confirming again reuses the same request, so exactly one event exists.
	resp = f.turn(t, sid, "yes")
	assert.True(t, resp.Done)
	assert.Equal(t, 1, f.gateway.EventCount())
}

func TestCancelMidFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a 30 minute meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID

	resp = f.turn(t, sid, "actually, cancel that")
	assert.True(t, resp.Done)
	assert.Equal(t, models.StateCancelled, resp.State)
	assert.Equal(t, 0, f.gateway.EventCount())

	// The session is gone; reusing the id starts a fresh conversation.
	resp = f.turn(t, sid, "book a call with Priya tomorrow at 10am for an hour")
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)
}

func TestExpiredSessionIsReported(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a meeting with Sam tomorrow at 3pm")
	sid := resp.SessionID

	f.now = f.now.Add(time.Hour)
	_, err := f.engine.HandleTurn(context.Background(), sid, "30 minutes")
	require.Error(t, err)
	assert.Equal(t, models.KindSessionExpired, models.KindOf(err))
}

func TestUnresolvableTimeDegradesToClarification(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "Book a meeting with Sam yesterday at 3pm")
	assert.Equal(t, models.StateCollecting, resp.State)
	assert.True(t, strings.Contains(resp.Reply, "couldn't work out"))

	// The session is still usable afterwards.
	resp = f.turn(t, resp.SessionID, "book a meeting with Sam tomorrow at 3pm for 30 minutes")
	assert.Equal(t, models.StateAwaitingConfirmation, resp.State)
}

func TestGibberishAsksForClarification(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "fhqwhgads")
	assert.Equal(t, models.StateCollecting, resp.State)
	assert.NotEmpty(t, resp.Reply)
	assert.False(t, resp.Done)
}

func TestTurnsAreRecordedOnTheSession(t *testing.T) {
	f := newFixture(t)

	resp := f.turn(t, "", "book a meeting with Sam")
	sid := resp.SessionID
	f.turn(t, sid, "tomorrow at 3pm")

	sess, err := f.store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 2)
	assert.Equal(t, "tomorrow at 3pm", sess.Turns[1].Utterance)
}
