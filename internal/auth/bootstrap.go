package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/drewfead/calnav/internal/config"
)

// OpenTokenStore returns the token store selected by cfg.TokenStore.
func OpenTokenStore(cfg config.AuthConfig) (TokenStore, error) {
	switch cfg.TokenStore {
	case config.TokenStoreKeyring:
		return OpenKeyringTokenStore(filepath.Join(filepath.Dir(cfg.TokenPath), "keyring"))
	case config.TokenStoreFile, "":
		if cfg.TokenPath == "" {
			return nil, fmt.Errorf("no token path configured")
		}
		return NewFileTokenStore(cfg.TokenPath), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// NewHTTPClient creates an authenticated HTTP client from config. A service
// account key takes precedence over the OAuth client credentials.
func NewHTTPClient(ctx context.Context, cfg config.AuthConfig) (*http.Client, error) {
	if cfg.ServiceAccountPath != "" {
		slog.Info("using service account authentication", "mode", "automated", "subject", cfg.Subject)
		return ServiceAccountClient(ctx, cfg.ServiceAccountPath, cfg.Subject)
	}

	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("no credentials configured (need service_account_path or credentials_path)")
	}

	oauthConfig, err := LoadConfig(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}

	store, err := OpenTokenStore(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("using OAuth user authentication", "mode", "interactive", "token_store", cfg.TokenStore)
	return Client(ctx, oauthConfig, store, cfg.CallbackPort)
}
