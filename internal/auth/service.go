package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
)

// serviceAccountConfig parses a service account key for calendar access.
// A non-empty subject makes the account act as that user, which requires
// domain-wide delegation in Google Workspace.
func serviceAccountConfig(keyPath, subject string) (*jwt.Config, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key: %w", err)
	}

	if credType, err := DetectCredentialType(data); err != nil {
		return nil, err
	} else if credType != CredentialTypeServiceAccount {
		return nil, fmt.Errorf("expected service account credentials, got %s", credType)
	}

	cfg, err := google.JWTConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	cfg.Subject = subject
	return cfg, nil
}

// ServiceAccountClient returns a client authorized as the service account in
// keyPath, or as subject when one is given. Tokens are minted on demand and
// never written to disk.
func ServiceAccountClient(ctx context.Context, keyPath, subject string) (*http.Client, error) {
	cfg, err := serviceAccountConfig(keyPath, subject)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded service account key", "client_email", cfg.Email, "subject", subject)
	return cfg.Client(ctx), nil
}
