// Package calendar wraps the Google Calendar v3 events API with the
// operations calnav exposes: listing upcoming, past and future events,
// navigating to a date, searching, and deleting events or reminders.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultCalendarID addresses the authenticated user's own calendar.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar API service
type Client struct {
	service    *calendar.Service
	calendarID string
}

// NewClient creates a new Google Calendar API client bound to calendarID
// ("" means primary). Optionally accepts an endpoint URL for testing with
// mock servers.
func NewClient(ctx context.Context, httpClient *http.Client, calendarID string, endpoint ...string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}

	if len(endpoint) > 0 && endpoint[0] != "" {
		opts = append(opts, option.WithEndpoint(endpoint[0]))
	}

	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	return &Client{
		service:    srv,
		calendarID: calendarID,
	}, nil
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// UpcomingEvents returns at most n events starting at or after from.
func (c *Client) UpcomingEvents(ctx context.Context, from time.Time, n int) ([]*calendar.Event, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of events must be at least 1, got %d", ErrInvalidValue, n)
	}

	return c.listEvents(ctx, n, func(call *calendar.EventsListCall) *calendar.EventsListCall {
		return call.TimeMin(formatTime(from)).MaxResults(int64(n))
	})
}

// PastEvents returns every event before until.
func (c *Client) PastEvents(ctx context.Context, until time.Time) ([]*calendar.Event, error) {
	return c.listEvents(ctx, 0, func(call *calendar.EventsListCall) *calendar.EventsListCall {
		return call.TimeMax(formatTime(until))
	})
}

// FutureEvents returns every event from from onwards.
func (c *Client) FutureEvents(ctx context.Context, from time.Time) ([]*calendar.Event, error) {
	return c.listEvents(ctx, 0, func(call *calendar.EventsListCall) *calendar.EventsListCall {
		return call.TimeMin(formatTime(from))
	})
}

// EventsOnDate returns the events of a single UTC day after validating the
// date.
func (c *Client) EventsOnDate(ctx context.Context, year, month, day int) ([]*calendar.Event, error) {
	if err := ValidateDate(year, month, day); err != nil {
		return nil, err
	}

	start, end := dayBounds(year, month, day)
	return c.listEvents(ctx, 0, func(call *calendar.EventsListCall) *calendar.EventsListCall {
		return call.TimeMin(formatTime(start)).TimeMax(formatTime(end))
	})
}

// Search runs a free-text query. The keyword is lowercased before it is
// sent. ErrEventNotFound is returned when nothing matches.
func (c *Client) Search(ctx context.Context, keyword string) ([]*calendar.Event, error) {
	keyword = strings.ToLower(keyword)

	events, err := c.listEvents(ctx, 0, func(call *calendar.EventsListCall) *calendar.EventsListCall {
		return call.Q(keyword)
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrEventNotFound
	}
	return events, nil
}

// DeleteEvents deletes each event in turn and stops at the first failure.
func (c *Client) DeleteEvents(ctx context.Context, events []*calendar.Event) (string, error) {
	if len(events) == 0 {
		return MsgNoEventsToDelete, nil
	}

	for _, event := range events {
		if err := c.service.Events.Delete(c.calendarID, event.Id).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to delete event %s: %w", event.Id, err)
		}
		slog.Debug("deleted event", "event_id", event.Id, "calendar_id", c.calendarID)
	}

	return MsgEventsDeleted, nil
}

// DeleteReminders clears custom overrides and the default-reminder flag on
// event and saves it, notifying attendees. event is modified in place.
func (c *Client) DeleteReminders(ctx context.Context, event *calendar.Event) (string, error) {
	if !HasReminders(event) {
		return MsgNoReminders, nil
	}

	event.Reminders.Overrides = nil
	event.Reminders.UseDefault = false
	// false is the zero value and would otherwise be dropped from the body.
	event.Reminders.ForceSendFields = append(event.Reminders.ForceSendFields, "UseDefault")

	_, err := c.service.Events.Update(c.calendarID, event.Id, event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to update event %s: %w", event.Id, err)
	}

	return MsgRemindersDeleted, nil
}

// listEvents expands recurring events, orders by start time and follows
// page tokens. A positive limit stops paging once that many events are in
// hand.
func (c *Client) listEvents(ctx context.Context, limit int, configure func(*calendar.EventsListCall) *calendar.EventsListCall) ([]*calendar.Event, error) {
	call := c.service.Events.List(c.calendarID).Context(ctx).SingleEvents(true).OrderBy("startTime")
	call = configure(call)

	items := []*calendar.Event{}
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve events: %w", err)
		}

		items = append(items, events.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	slog.Debug("listed events", "calendar_id", c.calendarID, "count", len(items))
	return items, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
