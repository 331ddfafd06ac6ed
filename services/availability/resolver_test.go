package availability

import (
	"context"
	"testing"
	"time"

	"meetsy/gateway"
	"meetsy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sam = models.Attendee{Name: "Sam", ID: "sam@example.com"}

func newTestResolver(gw *gateway.MemoryGateway) *Resolver {
	return NewResolver(gw, Config{
		Step:            15 * time.Minute,
		Horizon:         24 * time.Hour,
		Lookaround:      24 * time.Hour,
		MaxAlternatives: 3,
		GatewayTimeout:  time.Second,
	})
}

func TestCheckFreeWindow(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	res, err := r.Check(context.Background(), start, 30*time.Minute, []models.Attendee{sam}, now)
	require.NoError(t, err)
	assert.True(t, res.Free())
	assert.Equal(t, start, res.Window.Start)
	assert.Empty(t, res.Alternatives)
}

func TestCheckConflictProducesRankedAlternatives(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	gw.AddBusy(sam.ID, start, start.Add(time.Hour))

	res, err := r.Check(context.Background(), start, 30*time.Minute, []models.Attendee{sam}, now)
	require.NoError(t, err)
	assert.False(t, res.Free())
	require.NotEmpty(t, res.Conflicts)
	assert.Equal(t, sam.ID, res.Conflicts[0].AttendeeID)

	require.Len(t, res.Alternatives, 3)
	// 14:45 still overlap the busy block, so the nearest free starts are
	// 14:30 and 14:15 backward and 16:00 forward, ranked by distance.
	assert.Equal(t, start.Add(-30*time.Minute), res.Alternatives[0].Start)
	assert.Equal(t, start.Add(-45*time.Minute), res.Alternatives[1].Start)
	assert.Equal(t, start.Add(time.Hour), res.Alternatives[2].Start)

	// Every alternative is genuinely free and equal-duration.
	for _, alt := range res.Alternatives {
		assert.Equal(t, 30*time.Minute, alt.End.Sub(alt.Start))
		again, err := r.Check(context.Background(), alt.Start, 30*time.Minute, []models.Attendee{sam}, now)
		require.NoError(t, err)
		assert.True(t, again.Free())
	}
}

func TestAlternativesNeverStartBeforeNow(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	// The requested slot is only 30 minutes from now, so every backward
	// candidate is in the past.
	now := time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC)
	start := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	gw.AddBusy(sam.ID, start, start.Add(30*time.Minute))

	res, err := r.Check(context.Background(), start, 30*time.Minute, []models.Attendee{sam}, now)
	require.NoError(t, err)
	require.NotEmpty(t, res.Alternatives)
	for _, alt := range res.Alternatives {
		assert.False(t, alt.Start.Before(now))
	}
}

func TestCheckPartialOverlapIsConflict(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	// Busy block ends 10 minutes into the candidate window.
	gw.AddBusy(sam.ID, start.Add(-50*time.Minute), start.Add(10*time.Minute))

	res, err := r.Check(context.Background(), start, 30*time.Minute, []models.Attendee{sam}, now)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, start, res.Conflicts[0].Overlap.Start)
	assert.Equal(t, start.Add(10*time.Minute), res.Conflicts[0].Overlap.End)
}

func TestBackToBackEventsDoNotConflict(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	// Ends exactly when the candidate begins, and begins exactly when it ends.
	gw.AddBusy(sam.ID, start.Add(-time.Hour), start)
	gw.AddBusy(sam.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))

	res, err := r.Check(context.Background(), start, 30*time.Minute, []models.Attendee{sam}, now)
	require.NoError(t, err)
	assert.True(t, res.Free())
}

func TestGatewayFailureMapsToGatewayUnavailable(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	gw.FailNext(1, models.NewError(models.KindGatewayUnavailable, "provider down"))

	_, err := r.Check(context.Background(),
		time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC), 30*time.Minute,
		[]models.Attendee{sam}, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, models.KindGatewayUnavailable, models.KindOf(err))
	assert.True(t, models.IsRetryable(err))
}

func TestDayWindows(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	r := newTestResolver(gw)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	// Block 09:00-17:00, leaving only the 17:00-18:00 hour free.
	gw.AddBusy(sam.ID, day.Add(9*time.Hour), day.Add(17*time.Hour))

	windows, err := r.DayWindows(context.Background(), day, time.Hour, []models.Attendee{sam}, now)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, day.Add(17*time.Hour), windows[0].Start)

	// A fully open day yields hourly slots across business hours.
	clear := gateway.NewMemoryGateway()
	windows, err = newTestResolver(clear).DayWindows(context.Background(), day, time.Hour, []models.Attendee{sam}, now)
	require.NoError(t, err)
	assert.Len(t, windows, 9)
}
