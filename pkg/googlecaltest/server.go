// Package googlecaltest provides a mock Google Calendar API server for testing.
// It implements a subset of the Google Calendar API v3 Events endpoints.
package googlecaltest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Operation names accepted by Calls.
const (
	OpInsert = "insert"
	OpList   = "list"
	OpGet    = "get"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Server is a mock Google Calendar API server for testing.
type Server struct {
	*httptest.Server
	mu     sync.RWMutex
	events map[string]map[string]*calendar.Event // calendarID -> eventID -> event
	nextID int
	calls  map[string]int

	pageSize int

	lastListQuery   url.Values
	lastUpdateQuery url.Values
	lastUpdateBody  map[string]any
}

// NewServer creates a new mock Google Calendar API server.
func NewServer() *Server {
	s := &Server{
		events: make(map[string]map[string]*calendar.Event),
		nextID: 1,
		calls:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.Server = httptest.NewServer(mux)
	return s
}

// handleRequest routes all requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.URL.Path, "/calendars/") || !strings.Contains(r.URL.Path, "/events") {
		writeError(w, http.StatusNotFound, "unsupported endpoint")
		return
	}
	s.handleCalendars(w, r)
}

// handleCalendars routes calendar-related requests.
func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	// Path: [/calendar/v3]/calendars/{calendarId}/events[/{eventId}]
	path := r.URL.EscapedPath()
	idx := strings.Index(path, "/calendars/")
	path = path[idx+len("/calendars/"):]
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) < 2 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: expected at least calendarId/resource, got %v", parts))
		return
	}

	calendarID, err := url.PathUnescape(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar id")
		return
	}
	if parts[1] != "events" {
		writeError(w, http.StatusNotImplemented, "unsupported resource")
		return
	}

	switch len(parts) {
	case 2:
		switch r.Method {
		case http.MethodGet:
			s.listEvents(w, r, calendarID)
		case http.MethodPost:
			s.insertEvent(w, r, calendarID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 3:
		eventID, err := url.PathUnescape(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid event id")
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.getEvent(w, calendarID, eventID)
		case http.MethodPut, http.MethodPatch:
			s.updateEvent(w, r, calendarID, eventID)
		case http.MethodDelete:
			s.deleteEvent(w, calendarID, eventID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid path")
	}
}

// insertEvent handles POST /calendars/{calendarId}/events
func (s *Server) insertEvent(w http.ResponseWriter, r *http.Request, calendarID string) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpInsert]++

	event.Id = fmt.Sprintf("event%d", s.nextID)
	s.nextID++

	event.Status = "confirmed"
	event.Created = time.Now().UTC().Format(time.RFC3339)
	event.Updated = event.Created
	event.HtmlLink = fmt.Sprintf("https://calendar.google.com/event?eid=%s", event.Id)

	s.calendar(calendarID)[event.Id] = &event

	writeJSON(w, &event)
}

// listEvents handles GET /calendars/{calendarId}/events. timeMin bounds an
// event's end and timeMax its start, both exclusive, as in the real API.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request, calendarID string) {
	query := r.URL.Query()

	var timeMin, timeMax time.Time
	for name, dst := range map[string]*time.Time{"timeMin": &timeMin, "timeMax": &timeMax} {
		v := query.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", name, err))
			return
		}
		*dst = t
	}
	q := strings.ToLower(query.Get("q"))

	s.mu.Lock()
	s.calls[OpList]++
	s.lastListQuery = query
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		start, end := eventBounds(evt)
		if !timeMin.IsZero() && !end.IsZero() && !end.After(timeMin) {
			continue
		}
		if !timeMax.IsZero() && !start.IsZero() && !start.Before(timeMax) {
			continue
		}
		if q != "" && !matchesQuery(evt, q) {
			continue
		}
		events = append(events, evt)
	}

	if query.Get("orderBy") == "startTime" && query.Get("singleEvents") == "true" {
		sort.Slice(events, func(i, j int) bool {
			si, _ := eventBounds(events[i])
			sj, _ := eventBounds(events[j])
			if si.Equal(sj) {
				return events[i].Id < events[j].Id
			}
			return si.Before(sj)
		})
	}

	// The page token is the start index into the filtered result.
	startIdx, _ := strconv.Atoi(query.Get("pageToken"))
	if startIdx > len(events) {
		startIdx = len(events)
	}
	maxRes := len(events)
	if s.pageSize > 0 {
		maxRes = s.pageSize
	}
	if v := query.Get("maxResults"); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 && n < maxRes {
			maxRes = n
		}
	}
	endIdx := startIdx + maxRes
	if endIdx > len(events) {
		endIdx = len(events)
	}

	resp := &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   events[startIdx:endIdx],
	}
	if endIdx < len(events) {
		resp.NextPageToken = strconv.Itoa(endIdx)
	}

	writeJSON(w, resp)
}

// getEvent handles GET /calendars/{calendarId}/events/{eventId}
func (s *Server) getEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpGet]++

	event := s.events[calendarID][eventID]
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, event)
}

// updateEvent handles PUT/PATCH /calendars/{calendarId}/events/{eventId}.
// PUT replaces the stored event; PATCH is treated the same way.
func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, calendarID, eventID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var updates calendar.Event
	if err := json.Unmarshal(body, &updates); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpUpdate]++
	s.lastUpdateQuery = r.URL.Query()
	s.lastUpdateBody = raw

	existing := s.events[calendarID][eventID]
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	updates.Id = eventID
	updates.Created = existing.Created
	updates.Updated = time.Now().UTC().Format(time.RFC3339)
	updates.HtmlLink = existing.HtmlLink

	s.events[calendarID][eventID] = &updates

	writeJSON(w, &updates)
}

// deleteEvent handles DELETE /calendars/{calendarId}/events/{eventId}
func (s *Server) deleteEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpDelete]++

	if s.events[calendarID][eventID] == nil {
		writeError(w, http.StatusGone, "event not found")
		return
	}

	delete(s.events[calendarID], eventID)
	w.WriteHeader(http.StatusNoContent)
}

// calendar returns the event map for calendarID, creating it. Callers hold mu.
func (s *Server) calendar(calendarID string) map[string]*calendar.Event {
	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	return s.events[calendarID]
}

// Reset clears all events and call counters from the server.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]map[string]*calendar.Event)
	s.nextID = 1
	s.calls = make(map[string]int)
	s.lastListQuery = nil
	s.lastUpdateQuery = nil
	s.lastUpdateBody = nil
}

// GetEvents returns all events for a calendar (for test assertions).
func (s *Server) GetEvents(calendarID string) []*calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		events = append(events, evt)
	}
	return events
}

// GetEvent returns one stored event, or nil.
func (s *Server) GetEvent(calendarID, eventID string) *calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[calendarID][eventID]
}

// AddEvent adds a pre-configured event to the server (for test setup).
// It does not count as an insert call.
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Id == "" {
		event.Id = fmt.Sprintf("event%d", s.nextID)
		s.nextID++
	}

	s.calendar(calendarID)[event.Id] = event
}

// SetPageSize caps every list response at n items regardless of maxResults,
// forcing callers to follow page tokens. Zero removes the cap.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// Calls returns how many requests of the given operation were served.
func (s *Server) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// LastListQuery returns the query parameters of the most recent list call.
func (s *Server) LastListQuery() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastListQuery
}

// LastUpdateQuery returns the query parameters of the most recent update.
func (s *Server) LastUpdateQuery() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateQuery
}

// LastUpdateBody returns the decoded JSON body of the most recent update,
// so tests can see which fields were sent explicitly.
func (s *Server) LastUpdateBody() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateBody
}

// eventBounds parses an event's start and end. All-day dates are taken as
// UTC midnight and a missing end falls back to the start.
func eventBounds(evt *calendar.Event) (time.Time, time.Time) {
	start, end := parseEventTime(evt.Start), parseEventTime(evt.End)
	if end.IsZero() {
		end = start
	}
	return start, end
}

func parseEventTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t
	}
	if dt.Date != "" {
		t, _ := time.Parse("2006-01-02", dt.Date)
		return t
	}
	return time.Time{}
}

// matchesQuery approximates the API's free-text search with a
// case-insensitive substring match on text fields.
func matchesQuery(evt *calendar.Event, q string) bool {
	for _, field := range []string{evt.Summary, evt.Description, evt.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends an error body in the shape googleapi.CheckResponse parses.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}
