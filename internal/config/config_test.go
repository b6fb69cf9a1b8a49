package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return home, nil }
	t.Cleanup(func() { userHomeDir = orig })
	return home
}

func TestDefault(t *testing.T) {
	home := withHome(t)

	cfg := Default()
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, TokenStoreFile, cfg.Auth.TokenStore)
	assert.Equal(t, DefaultCallbackPort, cfg.Auth.CallbackPort)
	assert.Equal(t, filepath.Join(home, ".config", "calnav", "credentials.json"), cfg.Auth.CredentialsPath)
	assert.Equal(t, filepath.Join(home, ".config", "calnav", "token.json"), cfg.Auth.TokenPath)
}

func TestDefault_DetectsServiceAccountKey(t *testing.T) {
	home := withHome(t)
	assert.Empty(t, Default().Auth.ServiceAccountPath)

	require.NoError(t, EnsureConfigDir())
	key := filepath.Join(home, ".config", "calnav", "service-account.json")
	require.NoError(t, os.WriteFile(key, []byte(`{"type":"service_account"}`), 0o600))

	assert.Equal(t, key, Default().Auth.ServiceAccountPath)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	withHome(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	withHome(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := withHome(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `calendar_id: team@example.com
log_level: debug
auth:
  token_store: keyring
  token_path: ~/tokens/calnav.json
  callback_port: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, TokenStoreKeyring, cfg.Auth.TokenStore)
	assert.Equal(t, filepath.Join(home, "tokens", "calnav.json"), cfg.Auth.TokenPath)
	assert.Equal(t, 0, cfg.Auth.CallbackPort)
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := withHome(t)

	require.NoError(t, EnsureConfigDir())
	path := filepath.Join(home, ".config", "calnav", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_Invalid(t *testing.T) {
	withHome(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "calendar_id: [unterminated\n"},
		{name: "unknown token store", content: "auth:\n  token_store: vault\n"},
		{name: "port out of range", content: "auth:\n  callback_port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := withHome(t)

	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(home, ".config", "calnav"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}
