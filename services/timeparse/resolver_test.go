package timeparse

import (
	"testing"
	"time"

	"meetsy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-03-02 10:00 UTC.
var ref = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func TestResolveRelativeDays(t *testing.T) {
	r := NewResolver(time.UTC)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"tomorrow with time", "tomorrow at 3pm", time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)},
		{"day after tomorrow", "day after tomorrow at 9am", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"weekday rolls forward", "friday at 2pm", time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)},
		{"same weekday means next week", "monday at 2pm", time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)},
		{"next weekday skips this week", "next friday at noon", time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)},
		{"next week is coming monday", "next week at 10:30", time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)},
		{"explicit date", "june 5 at 4pm", time.Date(2026, 6, 5, 16, 0, 0, 0, time.UTC)},
		{"day-month order", "5th of june at 4pm", time.Date(2026, 6, 5, 16, 0, 0, 0, time.UTC)},
		{"past date wraps to next year", "january 10 at 9am", time.Date(2027, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"tonight", "tonight", time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)},
		{"tomorrow morning default", "tomorrow morning", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"tomorrow afternoon default", "tomorrow afternoon", time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.text, ref)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0].Start)
		})
	}
}

func TestResolvePastInstantRollsOrFails(t *testing.T) {
	r := NewResolver(time.UTC)

	// "today at 9am" said at 10:00 rolls to tomorrow morning.
	got, err := r.Resolve("today at 9am", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), got[0].Start)

	// Yesterday is never schedulable.
	_, err = r.Resolve("yesterday at 9am", ref)
	require.Error(t, err)
	assert.Equal(t, models.KindUnresolvableTime, models.KindOf(err))
}

func TestResolveTimeOnlyPicksNearestFuture(t *testing.T) {
	r := NewResolver(time.UTC)

	// 3pm is later today.
	got, err := r.Resolve("3pm", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC), got[0].Start)

	// 9am has passed, so it means tomorrow.
	got, err = r.Resolve("9am", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), got[0].Start)
}

func TestResolveDateOnlyYieldsFullDaySpan(t *testing.T) {
	r := NewResolver(time.UTC)

	got, err := r.Resolve("this friday", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), got[0].End)
	assert.True(t, got[0].AllDay())
}

func TestResolveWeekdayContradictingDate(t *testing.T) {
	r := NewResolver(time.UTC)

	// June 5 2026 falls on a Friday.
	_, err := r.Resolve("monday june 5 at 2pm", ref)
	require.Error(t, err)
	assert.Equal(t, models.KindAmbiguousSlot, models.KindOf(err))
}

func TestResolveWeekdayAgreeingWithDate(t *testing.T) {
	r := NewResolver(time.UTC)

	got, err := r.Resolve("friday june 5 at 2pm", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 6, 5, 14, 0, 0, 0, time.UTC), got[0].Start)
	assert.False(t, got[0].AllDay())
}

func TestResolveNoTemporalContent(t *testing.T) {
	r := NewResolver(time.UTC)

	got, err := r.Resolve("let's talk about the budget", ref)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveInvalidCalendarDate(t *testing.T) {
	r := NewResolver(time.UTC)

	_, err := r.Resolve("february 31 at 2pm", ref)
	require.Error(t, err)
	assert.Equal(t, models.KindUnresolvableTime, models.KindOf(err))
}

func TestPartsDecomposition(t *testing.T) {
	r := NewResolver(time.UTC)

	p, err := r.Parts("friday", ref)
	require.NoError(t, err)
	assert.True(t, p.HasDay)
	assert.False(t, p.HasTime)
	assert.Equal(t, time.Friday, p.Day.Weekday())

	p, err = r.Parts("at 3:30pm", ref)
	require.NoError(t, err)
	assert.False(t, p.HasDay)
	assert.True(t, p.HasTime)
	assert.Equal(t, 15, p.Hour)
	assert.Equal(t, 30, p.Minute)
}

func TestMeridiemEdgeCases(t *testing.T) {
	r := NewResolver(time.UTC)

	got, err := r.Resolve("tomorrow at 12pm", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 12, got[0].Start.Hour())

	got, err = r.Resolve("tomorrow at 12am", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 0, got[0].Start.Hour())
}

func TestResolverHonorsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	r := NewResolver(loc)

	got, err := r.Resolve("tomorrow at 9am", ref)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, loc, got[0].Start.Location())
	assert.Equal(t, 9, got[0].Start.Hour())
}
