// File: gateway/google.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meetsy/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleGateway talks to the Google Calendar API. Busy intervals come from
// freebusy queries; events are created with an id derived from the booking
// request id so a retried create is a provider-side no-op.
type GoogleGateway struct {
	svc        *calendar.Service
	calendarID string
}

func NewGoogleGateway(ctx context.Context, credentialsPath, calendarID string) (*GoogleGateway, error) {
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleGateway{svc: svc, calendarID: calendarID}, nil
}

func (g *GoogleGateway) GetBusyIntervals(ctx context.Context, attendeeIDs []string, start, end time.Time) ([]models.BusyInterval, error) {
	items := make([]*calendar.FreeBusyRequestItem, 0, len(attendeeIDs))
	for _, id := range attendeeIDs {
		items = append(items, &calendar.FreeBusyRequestItem{Id: id})
	}

	resp, err := g.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapTransport("freebusy query", err)
	}

	var out []models.BusyInterval
	for calID, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			ps, err1 := time.Parse(time.RFC3339, period.Start)
			pe, err2 := time.Parse(time.RFC3339, period.End)
			if err1 != nil || err2 != nil {
				continue
			}
			out = append(out, models.BusyInterval{
				Interval:   models.Interval{Start: ps, End: pe},
				AttendeeID: calID,
			})
		}
	}
	return out, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, req models.BookingRequest) (string, error) {
	event := g.buildEvent(req)
	event.Id = googleEventID(req.ID)

	created, err := g.svc.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		// 409 means the id already exists: the previous attempt landed.
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
			return event.Id, nil
		}
		return "", wrapTransport("event insert", err)
	}
	return created.Id, nil
}

func (g *GoogleGateway) ModifyEvent(ctx context.Context, eventID string, req models.BookingRequest) error {
	if _, err := g.svc.Events.Patch(g.calendarID, eventID, g.buildEvent(req)).Context(ctx).Do(); err != nil {
		return wrapTransport("event patch", err)
	}
	return nil
}

func (g *GoogleGateway) CancelEvent(ctx context.Context, eventID string) error {
	if err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return wrapTransport("event delete", err)
	}
	return nil
}

func (g *GoogleGateway) buildEvent(req models.BookingRequest) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(req.Attendees))
	for _, a := range req.Attendees {
		if a.ID != "" {
			attendees = append(attendees, &calendar.EventAttendee{Email: a.ID})
		}
	}
	return &calendar.Event{
		Summary:   req.Title,
		Start:     &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339)},
		End:       &calendar.EventDateTime{DateTime: req.End().Format(time.RFC3339)},
		Attendees: attendees,
	}
}

// googleEventID maps a booking request id onto the event id charset Google
// accepts (base32hex lowercase).
func googleEventID(requestID string) string {
	return strings.ToLower(strings.ReplaceAll(requestID, "-", ""))
}

func wrapTransport(op string, err error) error {
	return models.NewErrorf(models.KindGatewayUnavailable, "%s: %v", op, err)
}
