// Package availability checks candidate booking windows against attendee
// calendars and negotiates conflict-free alternatives.
package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"meetsy/gateway"
	"meetsy/models"
	"meetsy/utils"

	"go.uber.org/zap"
)

// Config tunes the alternative-window scan.
type Config struct {
	// Step is the scan increment when hunting for alternatives.
	Step time.Duration
	// Horizon bounds how far from the requested start the scan may wander.
	Horizon time.Duration
	// Lookaround bounds the busy-interval fetch around the candidate window.
	Lookaround time.Duration
	// MaxAlternatives caps how many windows are offered.
	MaxAlternatives int
	// GatewayTimeout bounds each calendar call.
	GatewayTimeout time.Duration
}

// DefaultConfig mirrors the documented defaults: 15 minute steps over a
// 7 day horizon, up to 3 alternatives.
func DefaultConfig() Config {
	return Config{
		Step:            15 * time.Minute,
		Horizon:         7 * 24 * time.Hour,
		Lookaround:      7 * 24 * time.Hour,
		MaxAlternatives: 3,
		GatewayTimeout:  5 * time.Second,
	}
}

// Resolver computes conflict-free windows through the calendar gateway.
type Resolver struct {
	Gateway gateway.CalendarGateway
	Config  Config
}

func NewResolver(gw gateway.CalendarGateway, cfg Config) *Resolver {
	if cfg.Step <= 0 {
		cfg = DefaultConfig()
	}
	return &Resolver{Gateway: gw, Config: cfg}
}

// Check resolves one candidate (start, duration, attendees) triple. Either
// the window comes back conflict-free, or the result carries the conflicts
// plus up to MaxAlternatives equal-duration windows ranked by proximity to
// the requested start. Alternatives never begin before now.
func (r *Resolver) Check(ctx context.Context, start time.Time, d time.Duration, attendees []models.Attendee, now time.Time) (models.AvailabilityResult, error) {
	ids := attendeeIDs(attendees)
	end := start.Add(d)

	busy, err := r.fetchBusy(ctx, ids, start.Add(-r.Config.Lookaround), end.Add(r.Config.Lookaround))
	if err != nil {
		return models.AvailabilityResult{}, err
	}

	window := models.AvailabilityWindow{
		Interval:   models.Interval{Start: start, End: end},
		Provenance: ids,
	}
	conflicts := conflictsIn(window.Interval, busy)
	if len(conflicts) == 0 {
		return models.AvailabilityResult{Window: window}, nil
	}

	result := models.AvailabilityResult{
		Window:       window,
		Conflicts:    conflicts,
		Alternatives: r.scanAlternatives(start, d, ids, busy, now),
	}
	return result, nil
}

// DayWindows lists the free windows of the given duration across a day's
// business hours (09:00-18:00) for availability questions.
func (r *Resolver) DayWindows(ctx context.Context, day time.Time, d time.Duration, attendees []models.Attendee, now time.Time) ([]models.AvailabilityWindow, error) {
	ids := attendeeIDs(attendees)
	open := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
	close := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, day.Location())

	busy, err := r.fetchBusy(ctx, ids, open, close)
	if err != nil {
		return nil, err
	}

	var out []models.AvailabilityWindow
	for t := open; !t.Add(d).After(close); t = t.Add(d) {
		if t.Before(now) {
			continue
		}
		iv := models.Interval{Start: t, End: t.Add(d)}
		if len(conflictsIn(iv, busy)) == 0 {
			out = append(out, models.AvailabilityWindow{Interval: iv, Provenance: ids})
		}
	}
	return out, nil
}

// fetchBusy runs the gateway lookup under the configured timeout, mapping
// any failure onto the retryable GatewayUnavailable kind.
func (r *Resolver) fetchBusy(ctx context.Context, ids []string, from, to time.Time) ([]models.BusyInterval, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.Config.GatewayTimeout)
	defer cancel()

	busy, err := r.Gateway.GetBusyIntervals(callCtx, ids, from, to)
	if err != nil {
		utils.GetLogger().Warn("busy interval lookup failed",
			zap.Strings("attendees", ids), zap.Error(err))
		if models.KindOf(err) == models.KindGatewayUnavailable {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewError(models.KindGatewayUnavailable, "calendar lookup timed out")
		}
		return nil, models.NewErrorf(models.KindGatewayUnavailable, "calendar lookup failed: %v", err)
	}
	return busy, nil
}

// scanAlternatives walks forward and backward from the requested start in
// fixed increments, keeps the first MaxAlternatives free windows found on
// each side, and interleaves the two sides by proximity.
func (r *Resolver) scanAlternatives(start time.Time, d time.Duration, ids []string, busy []models.BusyInterval, now time.Time) []models.AvailabilityWindow {
	n := r.Config.MaxAlternatives
	if n <= 0 {
		return nil
	}

	free := func(t time.Time) bool {
		return len(conflictsIn(models.Interval{Start: t, End: t.Add(d)}, busy)) == 0
	}

	var candidates []models.AvailabilityWindow
	forward := 0
	for t := start.Add(r.Config.Step); t.Sub(start) <= r.Config.Horizon && forward < n; t = t.Add(r.Config.Step) {
		if t.Before(now) || !free(t) {
			continue
		}
		candidates = append(candidates, models.AvailabilityWindow{
			Interval:   models.Interval{Start: t, End: t.Add(d)},
			Provenance: ids,
		})
		forward++
	}
	backward := 0
	for t := start.Add(-r.Config.Step); start.Sub(t) <= r.Config.Horizon && backward < n; t = t.Add(-r.Config.Step) {
		if t.Before(now) || !free(t) {
			continue
		}
		candidates = append(candidates, models.AvailabilityWindow{
			Interval:   models.Interval{Start: t, End: t.Add(d)},
			Provenance: ids,
		})
		backward++
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return distance(candidates[i].Start, start) < distance(candidates[j].Start, start)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func conflictsIn(window models.Interval, busy []models.BusyInterval) []models.Conflict {
	var out []models.Conflict
	for _, b := range busy {
		if overlap, ok := window.Intersect(b.Interval); ok {
			out = append(out, models.Conflict{
				EventID:    b.EventID,
				AttendeeID: b.AttendeeID,
				Overlap:    overlap,
			})
		}
	}
	return out
}

func attendeeIDs(attendees []models.Attendee) []string {
	ids := make([]string, 0, len(attendees))
	for _, a := range attendees {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func distance(a, b time.Time) time.Duration {
	if a.After(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}
