package calendar

import (
	"fmt"
	"strings"

	"google.golang.org/api/calendar/v3"
)

// EventStart returns the start as sent by the API: the date-time for timed
// events, the date for all-day events.
func EventStart(event *calendar.Event) string {
	if event.Start == nil {
		return ""
	}
	if event.Start.DateTime != "" {
		return event.Start.DateTime
	}
	return event.Start.Date
}

// EventLine formats an event as "<start> <summary>".
func EventLine(event *calendar.Event) string {
	return EventStart(event) + " " + event.Summary
}

// HasReminders reports whether the event has custom overrides or follows
// the calendar's default reminders. An empty overrides list counts as none;
// the API omits it rather than sending [].
func HasReminders(event *calendar.Event) bool {
	r := event.Reminders
	return r != nil && (len(r.Overrides) > 0 || r.UseDefault)
}

// SummarizeReminders describes an event's custom and default reminders.
func SummarizeReminders(event *calendar.Event) string {
	var overrides []*calendar.EventReminder
	useDefault := false
	if event.Reminders != nil {
		overrides = event.Reminders.Overrides
		useDefault = event.Reminders.UseDefault
	}

	var b strings.Builder
	if len(overrides) == 0 {
		b.WriteString("Custom reminders: No\n")
	} else {
		b.WriteString("Custom reminders:\n")
		for _, o := range overrides {
			fmt.Fprintf(&b, "Reminder sent by: %s\nTime reminder triggered before event start (minutes): %d\n", o.Method, o.Minutes)
		}
	}

	b.WriteString("Default reminders: ")
	b.WriteString(yesNo(useDefault))
	return b.String()
}

// FormatEventDetails renders the detail view shown after picking an event:
// title, creation date, organizer and description.
func FormatEventDetails(event *calendar.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Event title: %s\n", event.Summary)

	created := event.Created
	if len(created) > 10 {
		created = created[:10]
	}
	fmt.Fprintf(&b, "Creation date of event: %s\n", created)

	organizer := organizerFields(event.Organizer)
	if organizer == "" {
		b.WriteString("Organizer: No organizer details \n")
	} else {
		fmt.Fprintf(&b, "Organizer: %s\n", organizer)
	}

	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	} else {
		b.WriteString("Description: No description\n")
	}

	return b.String()
}

// organizerFields joins the organizer's set fields, each followed by a space.
func organizerFields(o *calendar.EventOrganizer) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	for _, v := range []string{o.Email, o.DisplayName, o.Id} {
		if v != "" {
			b.WriteString(v)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
