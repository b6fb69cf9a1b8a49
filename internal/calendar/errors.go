package calendar

import "errors"

// Result messages shown to the user. They are part of the CLI's observable
// output and are matched verbatim by callers.
const (
	MsgEventsDeleted    = "Event(s) successfully deleted\n"
	MsgNoEventsToDelete = "No events to delete"
	MsgRemindersDeleted = "All reminders deleted from event"
	MsgNoReminders      = "No reminders for this event"
	MsgEventNotFound    = "Event not found in calendar!"
)

var (
	// ErrInvalidValue marks input outside its allowed range: a non-positive
	// event count or a date that does not exist.
	ErrInvalidValue = errors.New("invalid value")

	// ErrEventNotFound is returned by Search when nothing matches.
	ErrEventNotFound = errors.New(MsgEventNotFound)
)
