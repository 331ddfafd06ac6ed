package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meetsy/models"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process calendar used when no real provider is
// configured, and by tests. Creates deduplicate on the request ID so the
// engine's retry path can be exercised against it.
type MemoryGateway struct {
	mu        sync.Mutex
	busy      []models.BusyInterval
	events    map[string]models.BookingRequest // eventID -> request
	byRequest map[string]string                // request ID -> eventID

	// FailNext, when set, makes the next calls fail with the given error
	// until the counter runs out. Test hook.
	failErr  error
	failLeft int
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		events:    make(map[string]models.BookingRequest),
		byRequest: make(map[string]string),
	}
}

// AddBusy seeds an occupied range on an attendee's calendar.
func (g *MemoryGateway) AddBusy(attendeeID string, start, end time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	eventID := "busy-" + uuid.New().String()[:8]
	g.busy = append(g.busy, models.BusyInterval{
		Interval:   models.Interval{Start: start, End: end},
		EventID:    eventID,
		AttendeeID: attendeeID,
	})
	return eventID
}

// FailNext makes the next n gateway calls return err.
func (g *MemoryGateway) FailNext(n int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failLeft = n
	g.failErr = err
}

// EventCount reports how many events exist, for idempotency assertions.
func (g *MemoryGateway) EventCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.events)
}

// Event returns a stored event by id.
func (g *MemoryGateway) Event(eventID string) (models.BookingRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.events[eventID]
	return req, ok
}

func (g *MemoryGateway) takeFailure() error {
	if g.failLeft > 0 {
		g.failLeft--
		return g.failErr
	}
	return nil
}

func (g *MemoryGateway) GetBusyIntervals(ctx context.Context, attendeeIDs []string, start, end time.Time) ([]models.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewErrorf(models.KindGatewayUnavailable, "calendar lookup: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(attendeeIDs))
	for _, id := range attendeeIDs {
		want[id] = true
	}
	window := models.Interval{Start: start, End: end}

	var out []models.BusyInterval
	for _, b := range g.busy {
		if want[b.AttendeeID] && b.Overlaps(window) {
			out = append(out, b)
		}
	}
	for eventID, req := range g.events {
		iv := models.Interval{Start: req.Start, End: req.End()}
		if !iv.Overlaps(window) {
			continue
		}
		for _, a := range req.Attendees {
			if want[a.ID] {
				out = append(out, models.BusyInterval{Interval: iv, EventID: eventID, AttendeeID: a.ID})
				break
			}
		}
	}
	return out, nil
}

func (g *MemoryGateway) CreateEvent(ctx context.Context, req models.BookingRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", models.NewErrorf(models.KindGatewayUnavailable, "calendar create: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return "", err
	}

	// Idempotent create: a request already booked returns its event.
	if eventID, ok := g.byRequest[req.ID]; ok {
		return eventID, nil
	}
	eventID := "evt-" + uuid.New().String()[:8]
	g.events[eventID] = req
	g.byRequest[req.ID] = eventID
	return eventID, nil
}

func (g *MemoryGateway) ModifyEvent(ctx context.Context, eventID string, req models.BookingRequest) error {
	if err := ctx.Err(); err != nil {
		return models.NewErrorf(models.KindGatewayUnavailable, "calendar modify: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return err
	}
	if _, ok := g.events[eventID]; !ok {
		return fmt.Errorf("no such event: %s", eventID)
	}
	g.events[eventID] = req
	return nil
}

func (g *MemoryGateway) CancelEvent(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return models.NewErrorf(models.KindGatewayUnavailable, "calendar cancel: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return err
	}
	if _, ok := g.events[eventID]; !ok {
		return fmt.Errorf("no such event: %s", eventID)
	}
	delete(g.events, eventID)
	return nil
}
