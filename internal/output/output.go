// Package output renders event lists for the one-shot subcommands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	gcalendar "google.golang.org/api/calendar/v3"
	"gopkg.in/yaml.v3"

	"github.com/drewfead/calnav/internal/calendar"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatICS  = "ics"
)

const productID = "-//calnav//EN"

// Formats lists every format Render accepts.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatICS}

// now stamps DTSTAMP on exported events.
var now = time.Now

// Render writes events to w in the given format.
func Render(w io.Writer, format string, events []*gcalendar.Event) error {
	if events == nil {
		events = []*gcalendar.Event{}
	}

	switch format {
	case FormatText, "":
		return renderText(w, events)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(events); err != nil {
			return fmt.Errorf("unable to encode events as JSON: %w", err)
		}
		return nil
	case FormatYAML:
		return renderYAML(w, events)
	case FormatICS:
		return renderICS(w, events)
	default:
		return fmt.Errorf("%w: unknown output format %q (want one of %v)", calendar.ErrInvalidValue, format, Formats)
	}
}

func renderText(w io.Writer, events []*gcalendar.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events found.")
		return err
	}
	for _, event := range events {
		if _, err := fmt.Fprintf(w, "%s\n%s\n", calendar.EventLine(event), calendar.SummarizeReminders(event)); err != nil {
			return err
		}
	}
	return nil
}

type reminderView struct {
	Method  string `yaml:"method"`
	Minutes int64  `yaml:"minutes"`
}

type eventView struct {
	ID          string         `yaml:"id"`
	Summary     string         `yaml:"summary"`
	Start       string         `yaml:"start"`
	End         string         `yaml:"end,omitempty"`
	Status      string         `yaml:"status,omitempty"`
	Location    string         `yaml:"location,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Created     string         `yaml:"created,omitempty"`
	Organizer   string         `yaml:"organizer,omitempty"`
	UseDefault  bool           `yaml:"default_reminders"`
	Reminders   []reminderView `yaml:"reminders,omitempty"`
}

func newEventView(event *gcalendar.Event) eventView {
	v := eventView{
		ID:          event.Id,
		Summary:     event.Summary,
		Start:       calendar.EventStart(event),
		Status:      event.Status,
		Location:    event.Location,
		Description: event.Description,
		Created:     event.Created,
	}
	if event.End != nil {
		v.End = event.End.DateTime
		if v.End == "" {
			v.End = event.End.Date
		}
	}
	if event.Organizer != nil {
		v.Organizer = event.Organizer.Email
	}
	if event.Reminders != nil {
		v.UseDefault = event.Reminders.UseDefault
		for _, o := range event.Reminders.Overrides {
			v.Reminders = append(v.Reminders, reminderView{Method: o.Method, Minutes: o.Minutes})
		}
	}
	return v
}

func renderYAML(w io.Writer, events []*gcalendar.Event) error {
	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, newEventView(event))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(views); err != nil {
		return fmt.Errorf("unable to encode events as YAML: %w", err)
	}
	return enc.Close()
}

func renderICS(w io.Writer, events []*gcalendar.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	stamp := now().UTC()
	for _, event := range events {
		ve, err := toICal(event, stamp)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("unable to encode events to iCal format: %w", err)
	}
	return nil
}

// toICal converts an API event to a VEVENT. All-day events keep DATE values.
func toICal(event *gcalendar.Event, stamp time.Time) (*ical.Component, error) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.Id)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	if err := setEventTime(ve, ical.PropDateTimeStart, event.Start); err != nil {
		return nil, fmt.Errorf("unable to convert start of event %s: %w", event.Id, err)
	}
	if err := setEventTime(ve, ical.PropDateTimeEnd, event.End); err != nil {
		return nil, fmt.Errorf("unable to convert end of event %s: %w", event.Id, err)
	}

	if event.Summary != "" {
		ve.Props.SetText(ical.PropSummary, event.Summary)
	}
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.Organizer != nil && event.Organizer.Email != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText("mailto:" + event.Organizer.Email)
		ve.Props.Add(p)
	}
	return ve, nil
}

func setEventTime(ve *ical.Component, name string, edt *gcalendar.EventDateTime) error {
	if edt == nil {
		return nil
	}
	switch {
	case edt.DateTime != "":
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return err
		}
		ve.Props.SetDateTime(name, t.UTC())
	case edt.Date != "":
		t, err := time.Parse(time.DateOnly, edt.Date)
		if err != nil {
			return err
		}
		ve.Props.SetDate(name, t)
	}
	return nil
}
