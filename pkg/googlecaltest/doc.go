// Package googlecaltest provides a mock Google Calendar API server for testing.
//
// The mock server implements a subset of the Google Calendar API v3 Events endpoints,
// allowing tests to run without authentication or network access.
//
// # Supported Operations
//
//   - Insert Event: POST /calendars/{calendarId}/events
//   - List Events: GET /calendars/{calendarId}/events (pagination, timeMin/timeMax, q, orderBy)
//   - Get Event: GET /calendars/{calendarId}/events/{eventId}
//   - Update Event: PUT/PATCH /calendars/{calendarId}/events/{eventId}
//   - Delete Event: DELETE /calendars/{calendarId}/events/{eventId}
//
// # Basic Usage
//
//	server := googlecaltest.NewServer()
//	defer server.Close()
//
//	client, err := calendar.NewClient(ctx, server.Client(), "primary", server.URL)
//
// # Test Helpers
//
//	// Pre-populate events for testing
//	server.AddEvent("primary", &gcalendar.Event{Id: "standup", Summary: "Standup"})
//
//	// Assert on what the client sent
//	server.Calls(googlecaltest.OpDelete)
//	server.LastListQuery().Get("q")
//	server.LastUpdateQuery().Get("sendUpdates")
//	server.LastUpdateBody()
//
//	// Force multi-page list responses
//	server.SetPageSize(4)
//
//	// Clear all data between tests
//	server.Reset()
//
// # Semantics
//
// timeMin filters on an event's end and timeMax on its start, both
// exclusive. All-day events are placed at UTC midnight. q is a
// case-insensitive substring match over summary, description and location.
// The page token is a start index into the filtered, sorted result.
package googlecaltest
