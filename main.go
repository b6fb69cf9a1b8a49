package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	gcalendar "google.golang.org/api/calendar/v3"

	"github.com/drewfead/calnav/internal/auth"
	"github.com/drewfead/calnav/internal/calendar"
	"github.com/drewfead/calnav/internal/config"
	"github.com/drewfead/calnav/internal/menu"
	"github.com/drewfead/calnav/internal/output"
)

const envPrefix = "CALNAV_"

// newHTTPClient is replaced in tests to skip credential handling.
var newHTTPClient = auth.NewHTTPClient

// app holds state shared by every command. The calendar client is created
// on first use so that help and config errors never trigger the OAuth flow.
type app struct {
	cfg    *config.Config
	client *calendar.Client
	now    func() time.Time
}

// load reads the config file and applies flag and environment overrides.
func (a *app) load(cmd *cli.Command) error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("%w (see config.example.yaml for configuration format)", err)
	}

	if cmd.IsSet("calendar") {
		cfg.CalendarID = cmd.String("calendar")
	}
	if cmd.IsSet("endpoint") {
		cfg.APIEndpoint = cmd.String("endpoint")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}
	if cmd.IsSet("token-store") {
		cfg.Auth.TokenStore = cmd.String("token-store")
	}
	if cmd.IsSet("credentials") {
		cfg.Auth.CredentialsPath = cmd.String("credentials")
	}
	if cmd.IsSet("service-account") {
		cfg.Auth.ServiceAccountPath = cmd.String("service-account")
	}
	if cmd.IsSet("callback-port") {
		cfg.Auth.CallbackPort = cmd.Int("callback-port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(setupLogger(cfg.LogLevel, cmd.Root().ErrWriter))
	slog.Debug("loaded configuration", "calendar_id", cfg.CalendarID, "format", cfg.Format, "token_store", cfg.Auth.TokenStore)

	a.cfg = cfg
	return nil
}

// ensureInitialized authenticates and builds the calendar client on first use.
func (a *app) ensureInitialized(ctx context.Context, cmd *cli.Command) error {
	if err := a.load(cmd); err != nil {
		return err
	}
	if a.client != nil {
		return nil
	}

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	httpClient, err := newHTTPClient(ctx, a.cfg.Auth)
	if err != nil {
		return fmt.Errorf("google calendar authentication failed: %w\n\nGoogle Calendar credentials are required. See config.example.yaml.\n\nOption 1: Service Account (for automation/cron)\nOption 2: OAuth Client (for interactive use)", err)
	}

	client, err := calendar.NewClient(ctx, httpClient, a.cfg.CalendarID, a.cfg.APIEndpoint)
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}

	a.client = client
	return nil
}

// render prints events in the configured output format.
func (a *app) render(cmd *cli.Command, events []*gcalendar.Event) error {
	return output.Render(cmd.Root().Writer, a.cfg.Format, events)
}

// listAction wraps a one-shot listing so each subcommand only supplies the
// calendar call.
func (a *app) listAction(list func(ctx context.Context, cmd *cli.Command) ([]*gcalendar.Event, error)) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := a.ensureInitialized(ctx, cmd); err != nil {
			return err
		}
		events, err := list(ctx, cmd)
		if err != nil {
			return err
		}
		return a.render(cmd, events)
	}
}

func (a *app) runMenu(ctx context.Context, cmd *cli.Command) error {
	if err := a.ensureInitialized(ctx, cmd); err != nil {
		return err
	}

	m := &menu.Menu{
		Client: a.client,
		In:     cmd.Root().Reader,
		Out:    cmd.Root().Writer,
		Now:    a.now,
		Logger: slog.Default(),
	}
	return m.Run(ctx)
}

func (a *app) search(ctx context.Context, cmd *cli.Command) error {
	keyword := strings.Join(cmd.Args().Slice(), " ")
	if keyword == "" {
		return fmt.Errorf("%w: search needs a keyword", calendar.ErrInvalidValue)
	}
	if err := a.ensureInitialized(ctx, cmd); err != nil {
		return err
	}

	out := cmd.Root().Writer
	events, err := a.client.Search(ctx, keyword)
	if errors.Is(err, calendar.ErrEventNotFound) {
		fmt.Fprintln(out, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.render(cmd, events); err != nil {
		return err
	}

	switch {
	case cmd.Bool("delete"):
		msg, err := a.client.DeleteEvents(ctx, events)
		if err != nil {
			return err
		}
		fmt.Fprint(out, msg)
	case cmd.Bool("clear-reminders"):
		for _, event := range events {
			msg, err := a.client.DeleteReminders(ctx, event)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
		}
	}
	return nil
}

// authenticate runs the browser flow and stores a fresh token even when one
// is already cached.
func (a *app) authenticate(ctx context.Context, cmd *cli.Command) error {
	if err := a.load(cmd); err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	oauthConfig, err := auth.LoadConfig(a.cfg.Auth.CredentialsPath)
	if err != nil {
		return err
	}
	store, err := auth.OpenTokenStore(a.cfg.Auth)
	if err != nil {
		return err
	}

	slog.Info("starting Google authentication flow", "token_store", a.cfg.Auth.TokenStore)
	token, err := auth.TokenFromWeb(ctx, oauthConfig, a.cfg.Auth.CallbackPort)
	if err != nil {
		return err
	}
	if err := store.Save(token); err != nil {
		return err
	}

	slog.Info("successfully authenticated and saved token")
	return nil
}

func newRootCommand(now func() time.Time) *cli.Command {
	a := &app{now: now}

	return &cli.Command{
		Name:   "calnav",
		Usage:  "Browse, search and tidy up a Google Calendar from the terminal.",
		Action: a.runMenu,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config.yaml", Sources: cli.EnvVars(envPrefix + "CONFIG")},
			&cli.StringFlag{Name: "calendar", Usage: "calendar ID to operate on", Sources: cli.EnvVars(envPrefix + "CALENDAR")},
			&cli.StringFlag{Name: "endpoint", Usage: "Calendar API endpoint override", Sources: cli.EnvVars(envPrefix + "ENDPOINT")},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Sources: cli.EnvVars(envPrefix + "LOG_LEVEL")},
			&cli.StringFlag{Name: "format", Usage: "output format for one-shot commands: " + strings.Join(output.Formats, ", "), Sources: cli.EnvVars(envPrefix + "FORMAT")},
			&cli.StringFlag{Name: "token-store", Usage: "where to cache the OAuth token: file or keyring", Sources: cli.EnvVars(envPrefix + "TOKEN_STORE")},
			&cli.StringFlag{Name: "credentials", Usage: "path to the OAuth client credentials JSON", Sources: cli.EnvVars(envPrefix + "CREDENTIALS")},
			&cli.StringFlag{Name: "service-account", Usage: "path to a service account key JSON", Sources: cli.EnvVars(envPrefix + "SERVICE_ACCOUNT")},
			&cli.IntFlag{Name: "callback-port", Usage: "local port for the OAuth redirect (0 picks a free port)", Sources: cli.EnvVars(envPrefix + "CALLBACK_PORT")},
		},
		Commands: []*cli.Command{
			{
				Name:   "menu",
				Usage:  "Run the interactive menu (default).",
				Action: a.runMenu,
			},
			{
				Name:  "upcoming",
				Usage: "List the next N events.",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 10, Usage: "number of events"},
				},
				Action: a.listAction(func(ctx context.Context, cmd *cli.Command) ([]*gcalendar.Event, error) {
					return a.client.UpcomingEvents(ctx, a.now(), cmd.Int("count"))
				}),
			},
			{
				Name:  "past",
				Usage: "List every event before now.",
				Action: a.listAction(func(ctx context.Context, _ *cli.Command) ([]*gcalendar.Event, error) {
					return a.client.PastEvents(ctx, a.now())
				}),
			},
			{
				Name:  "future",
				Usage: "List every event from now on.",
				Action: a.listAction(func(ctx context.Context, _ *cli.Command) ([]*gcalendar.Event, error) {
					return a.client.FutureEvents(ctx, a.now())
				}),
			},
			{
				Name:  "day",
				Usage: "List the events of one day (UTC).",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Required: true},
					&cli.IntFlag{Name: "month", Required: true},
					&cli.IntFlag{Name: "day", Required: true},
				},
				Action: a.listAction(func(ctx context.Context, cmd *cli.Command) ([]*gcalendar.Event, error) {
					return a.client.EventsOnDate(ctx, cmd.Int("year"), cmd.Int("month"), cmd.Int("day"))
				}),
			},
			{
				Name:      "search",
				Usage:     "Find events by keyword, optionally deleting them or their reminders.",
				ArgsUsage: "KEYWORD",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete", Usage: "delete every matched event"},
					&cli.BoolFlag{Name: "clear-reminders", Usage: "remove all reminders from every matched event"},
				},
				Action: a.search,
			},
			{
				Name:   "auth",
				Usage:  "Authenticate with a Google account and store the token.",
				Action: a.authenticate,
			},
		},
	}
}

func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(time.Now).Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
