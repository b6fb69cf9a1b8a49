package auth

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// LoadConfig loads OAuth client credentials from the specified file path.
// The calendar scope is read-write: events are deleted and updated.
func LoadConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	credType, err := DetectCredentialType(b)
	if err != nil {
		return nil, err
	}
	if credType != CredentialTypeOAuthClient {
		return nil, fmt.Errorf("expected OAuth client credentials in %s, got %s", credentialsPath, credType)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	return config, nil
}
