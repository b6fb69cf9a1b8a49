// Package menu implements the interactive numbered menu over a reader and a
// writer, so it can be driven by a terminal or by a scripted test.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	gcalendar "google.golang.org/api/calendar/v3"

	"github.com/drewfead/calnav/internal/calendar"
)

// Menu option numbers.
const (
	OptionUpcoming = iota + 1
	OptionPast
	OptionFuture
	OptionNavigate
	OptionSearch
	OptionQuit
)

const (
	msgNoUpcoming = "No upcoming events found."
	msgNoPast     = "No past events found."

	msgPickNotInteger = "Invalid input. Event number must be an integer corresponding to an event in the events list."
	msgPickOutOfRange = "Invalid input. Event number must correspond to an event in the events list."

	monthTable = "1. Jan\n2. Feb\n3. Mar\n4. Apr\n5. May\n6. Jun\n7. Jul\n8. Aug\n9. Sep\n10. Oct\n11. Nov\n12. Dec"
)

var (
	// errInvalidInput marks a non-numeric entry where a number was expected.
	errInvalidInput = errors.New("invalid input")

	// errInputClosed is returned by prompt once input is exhausted. It is
	// distinct from io.EOF, which also surfaces from dropped connections.
	errInputClosed = errors.New("input closed")
)

// Service is the subset of *calendar.Client the menu drives.
type Service interface {
	UpcomingEvents(ctx context.Context, from time.Time, n int) ([]*gcalendar.Event, error)
	PastEvents(ctx context.Context, until time.Time) ([]*gcalendar.Event, error)
	FutureEvents(ctx context.Context, from time.Time) ([]*gcalendar.Event, error)
	EventsOnDate(ctx context.Context, year, month, day int) ([]*gcalendar.Event, error)
	Search(ctx context.Context, keyword string) ([]*gcalendar.Event, error)
	DeleteEvents(ctx context.Context, events []*gcalendar.Event) (string, error)
	DeleteReminders(ctx context.Context, event *gcalendar.Event) (string, error)
}

// Menu runs the option loop. Now defaults to time.Now and Logger to
// slog.Default.
type Menu struct {
	Client Service
	In     io.Reader
	Out    io.Writer
	Now    func() time.Time
	Logger *slog.Logger

	scanner *bufio.Scanner
}

// Run shows the menu until the user quits or input ends. Bad input and
// out-of-range values abort only the current option; any other error is
// returned.
func (m *Menu) Run(ctx context.Context) error {
	if m.Now == nil {
		m.Now = time.Now
	}
	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	m.scanner = bufio.NewScanner(m.In)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printOptions()
		line, err := m.prompt("Pick an option number: ")
		if err != nil {
			if errors.Is(err, errInputClosed) {
				return nil
			}
			return err
		}

		option, err := strconv.Atoi(line)
		if err != nil {
			m.println("Invalid input. Option must be a number from 1 to 6.")
			continue
		}
		if option == OptionQuit {
			return nil
		}

		err = m.dispatch(ctx, option)
		switch {
		case err == nil:
		case errors.Is(err, errInputClosed):
			return nil
		case errors.Is(err, calendar.ErrInvalidValue), errors.Is(err, errInvalidInput):
			m.Logger.Debug("menu action aborted", "option", option, "error", err)
			m.println(err.Error())
		default:
			return err
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, option int) error {
	switch option {
	case OptionUpcoming:
		return m.upcoming(ctx)
	case OptionPast:
		return m.past(ctx)
	case OptionFuture:
		return m.future(ctx)
	case OptionNavigate:
		return m.navigate(ctx)
	case OptionSearch:
		return m.search(ctx)
	default:
		return fmt.Errorf("%w: no menu option %d", calendar.ErrInvalidValue, option)
	}
}

func (m *Menu) upcoming(ctx context.Context) error {
	n, err := m.promptInt("Select the number of events you want to display: ")
	if err != nil {
		return err
	}

	events, err := m.Client.UpcomingEvents(ctx, m.Now(), n)
	if err != nil {
		return err
	}

	m.printf("printing the next %d events\n", n)
	if len(events) == 0 {
		m.println(msgNoUpcoming)
	}
	for _, event := range events {
		m.println(calendar.EventLine(event))
	}
	return nil
}

func (m *Menu) past(ctx context.Context) error {
	events, err := m.Client.PastEvents(ctx, m.Now())
	if err != nil {
		return err
	}
	m.printWithReminders(events, msgNoPast)
	return nil
}

func (m *Menu) future(ctx context.Context) error {
	events, err := m.Client.FutureEvents(ctx, m.Now())
	if err != nil {
		return err
	}
	m.printWithReminders(events, msgNoUpcoming)
	return nil
}

func (m *Menu) navigate(ctx context.Context) error {
	m.println("")
	year, err := m.promptInt("Input the year to navigate to: ")
	if err != nil {
		return err
	}
	m.println(monthTable)
	month, err := m.promptInt("Please input a month number to navigate to as indicated by numbering: ")
	if err != nil {
		return err
	}
	day, err := m.promptInt("Please select a day in this month: ")
	if err != nil {
		return err
	}

	events, err := m.Client.EventsOnDate(ctx, year, month, day)
	if err != nil {
		return err
	}

	m.printWithReminders(events, msgNoUpcoming)
	if len(events) == 0 {
		return nil
	}
	for i, event := range events {
		m.printf("\n%d. %s\n", i+1, event.Summary)
	}

	pick, err := m.prompt("Pick an event number to display more details [enter 'Q' to quit]: ")
	if err != nil || pick == "Q" {
		return err
	}

	idx, err := strconv.Atoi(pick)
	switch {
	case err != nil:
		m.println(msgPickNotInteger)
	case idx < 1 || idx > len(events):
		m.println(msgPickOutOfRange)
	default:
		m.println(calendar.FormatEventDetails(events[idx-1]))
	}
	return nil
}

func (m *Menu) search(ctx context.Context) error {
	keyword, err := m.prompt("Enter the title of event: ")
	if err != nil {
		return err
	}

	events, err := m.Client.Search(ctx, keyword)
	if errors.Is(err, calendar.ErrEventNotFound) {
		m.println(err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	for _, event := range events {
		m.printf("%s\n%s\n", calendar.EventLine(event), calendar.SummarizeReminders(event))
	}
	m.println("")

	answer, err := m.prompt("Delete this event(s)?[Y/N]: ")
	if err != nil {
		return err
	}
	switch answer {
	case "Y":
		msg, err := m.Client.DeleteEvents(ctx, events)
		if err != nil {
			return err
		}
		m.println(msg)
	case "N":
		answer, err := m.prompt("Delete all reminders of this event(s)?[Y/N]: ")
		if err != nil || answer != "Y" {
			return err
		}
		for _, event := range events {
			msg, err := m.Client.DeleteReminders(ctx, event)
			if err != nil {
				return err
			}
			m.println(msg)
		}
	}
	return nil
}

func (m *Menu) printOptions() {
	m.println("\n1. Print the next x number of events")
	m.println("2. Print all the past events")
	m.println("3. Print all the future events")
	m.println("4. Navigate to an event on a certain date")
	m.println("5. Search for an event")
	m.println("6. Quit")
}

func (m *Menu) printWithReminders(events []*gcalendar.Event, empty string) {
	if len(events) == 0 {
		m.println(empty)
		return
	}
	for _, event := range events {
		m.println(calendar.EventLine(event))
		m.println(calendar.SummarizeReminders(event))
	}
}

// prompt writes label and returns the next input line, trimmed. It returns
// errInputClosed once input is exhausted.
func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.Out, label)
	if !m.scanner.Scan() {
		if err := m.scanner.Err(); err != nil {
			return "", fmt.Errorf("unable to read input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(m.scanner.Text()), nil
}

func (m *Menu) promptInt(label string) (int, error) {
	line, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errInvalidInput, line)
	}
	return n, nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.Out, s)
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.Out, format, args...)
}
