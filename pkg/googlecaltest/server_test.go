package googlecaltest

import (
	"context"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newService(t *testing.T, server *Server) *calendar.Service {
	t.Helper()
	svc, err := calendar.NewService(context.Background(), option.WithHTTPClient(server.Client()), option.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("failed to create calendar service: %v", err)
	}
	return svc
}

func timedEvent(summary string, start time.Time) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339)},
	}
}

var base = time.Date(2030, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMockServer_InsertEvent(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	created, err := svc.Events.Insert("primary", timedEvent("Test Event", base)).Do()
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	if created.Id == "" {
		t.Error("expected event ID to be set")
	}
	if created.Summary != "Test Event" {
		t.Errorf("expected summary 'Test Event', got %q", created.Summary)
	}
	if created.Status != "confirmed" {
		t.Errorf("expected status 'confirmed', got %q", created.Status)
	}
	if got := server.Calls(OpInsert); got != 1 {
		t.Errorf("expected 1 insert call, got %d", got)
	}
}

func TestMockServer_ListEventsWithPagination(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	for i := 0; i < 10; i++ {
		server.AddEvent("primary", timedEvent("Event "+string(rune('A'+i)), base.Add(time.Duration(i)*time.Hour)))
	}

	var all []*calendar.Event
	pageToken := ""
	for {
		call := svc.Events.List("primary").MaxResults(3).SingleEvents(true).OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		all = append(all, events.Items...)

		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}

	if len(all) != 10 {
		t.Fatalf("expected 10 total events with pagination, got %d", len(all))
	}
	for i, evt := range all {
		if want := "Event " + string(rune('A'+i)); evt.Summary != want {
			t.Errorf("position %d: expected %q, got %q", i, want, evt.Summary)
		}
	}
	if got := server.Calls(OpList); got != 4 {
		t.Errorf("expected 4 list calls, got %d", got)
	}
}

func TestMockServer_ListEventsTimeFilters(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	server.AddEvent("primary", timedEvent("before", base.Add(-48*time.Hour)))
	server.AddEvent("primary", timedEvent("during", base))
	server.AddEvent("primary", timedEvent("after", base.Add(48*time.Hour)))
	server.AddEvent("primary", &calendar.Event{
		Summary: "all day",
		Start:   &calendar.EventDateTime{Date: "2030-03-10"},
		End:     &calendar.EventDateTime{Date: "2030-03-11"},
	})

	dayStart := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		timeMin string
		timeMax string
		want    []string
	}{
		{
			name:    "single day",
			timeMin: dayStart.Format(time.RFC3339),
			timeMax: dayStart.Add(24*time.Hour - time.Second).Format(time.RFC3339),
			want:    []string{"all day", "during"},
		},
		{
			name:    "past only",
			timeMax: dayStart.Format(time.RFC3339),
			want:    []string{"before"},
		},
		{
			name:    "future only",
			timeMin: base.Add(24 * time.Hour).Format(time.RFC3339),
			want:    []string{"after"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := svc.Events.List("primary").SingleEvents(true).OrderBy("startTime")
			if tt.timeMin != "" {
				call = call.TimeMin(tt.timeMin)
			}
			if tt.timeMax != "" {
				call = call.TimeMax(tt.timeMax)
			}
			events, err := call.Do()
			if err != nil {
				t.Fatalf("failed to list events: %v", err)
			}

			var got []string
			for _, evt := range events.Items {
				got = append(got, evt.Summary)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestMockServer_ListEventsQuery(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	server.AddEvent("primary", timedEvent("Project Review", base))
	server.AddEvent("primary", &calendar.Event{
		Summary:     "Lunch",
		Description: "talk about the project",
		Start:       &calendar.EventDateTime{DateTime: base.Add(3 * time.Hour).Format(time.RFC3339)},
	})
	server.AddEvent("primary", timedEvent("Gym", base.Add(5*time.Hour)))

	events, err := svc.Events.List("primary").Q("project").Do()
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events.Items) != 2 {
		t.Errorf("expected 2 matches, got %d", len(events.Items))
	}
	if got := server.LastListQuery().Get("q"); got != "project" {
		t.Errorf("expected q=project to be recorded, got %q", got)
	}
}

func TestMockServer_GetEvent(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	created, err := svc.Events.Insert("primary", timedEvent("Test Event", base)).Do()
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	fetched, err := svc.Events.Get("primary", created.Id).Do()
	if err != nil {
		t.Fatalf("failed to get event: %v", err)
	}

	if fetched.Id != created.Id {
		t.Errorf("expected ID %q, got %q", created.Id, fetched.Id)
	}
	if fetched.Summary != "Test Event" {
		t.Errorf("expected summary 'Test Event', got %q", fetched.Summary)
	}
}

func TestMockServer_UpdateEvent(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	created, err := svc.Events.Insert("primary", timedEvent("Test Event", base)).Do()
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	created.Summary = "Renamed"
	created.Reminders = &calendar.EventReminders{UseDefault: false, ForceSendFields: []string{"UseDefault"}}
	if _, err := svc.Events.Update("primary", created.Id, created).SendUpdates("all").Do(); err != nil {
		t.Fatalf("failed to update event: %v", err)
	}

	if got := server.GetEvent("primary", created.Id).Summary; got != "Renamed" {
		t.Errorf("expected stored summary 'Renamed', got %q", got)
	}
	if got := server.LastUpdateQuery().Get("sendUpdates"); got != "all" {
		t.Errorf("expected sendUpdates=all, got %q", got)
	}
	reminders, ok := server.LastUpdateBody()["reminders"].(map[string]any)
	if !ok {
		t.Fatalf("expected reminders in update body, got %v", server.LastUpdateBody())
	}
	if v, ok := reminders["useDefault"]; !ok || v != false {
		t.Errorf("expected explicit useDefault=false, got %v (present=%v)", v, ok)
	}
}

func TestMockServer_DeleteEvent(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	created, err := svc.Events.Insert("primary", timedEvent("Test Event", base)).Do()
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	if err := svc.Events.Delete("primary", created.Id).Do(); err != nil {
		t.Fatalf("failed to delete event: %v", err)
	}

	if _, err := svc.Events.Get("primary", created.Id).Do(); err == nil {
		t.Error("expected error when getting deleted event")
	}
	if err := svc.Events.Delete("primary", created.Id).Do(); err == nil {
		t.Error("expected error when deleting twice")
	}
	if got := server.Calls(OpDelete); got != 2 {
		t.Errorf("expected 2 delete calls, got %d", got)
	}
}

func TestMockServer_Reset(t *testing.T) {
	server := NewServer()
	defer server.Close()
	svc := newService(t, server)

	if _, err := svc.Events.Insert("primary", timedEvent("Test Event", base)).Do(); err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	server.Reset()

	if got := server.Calls(OpInsert); got != 0 {
		t.Errorf("expected counters cleared, got %d inserts", got)
	}

	events, err := svc.Events.List("primary").Do()
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events.Items) != 0 {
		t.Errorf("expected 0 events after reset, got %d", len(events.Items))
	}
}
