// Package config loads calnav settings from ~/.config/calnav/config.yaml
// and an optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCalendarID   = "primary"
	DefaultLogLevel     = "info"
	DefaultFormat       = "text"
	DefaultCallbackPort = 8080

	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

// Config is the on-disk configuration. Command-line flags and CALNAV_*
// environment variables override individual fields after loading.
type Config struct {
	CalendarID  string     `yaml:"calendar_id"`
	APIEndpoint string     `yaml:"api_endpoint"`
	LogLevel    string     `yaml:"log_level"`
	Format      string     `yaml:"format"`
	Auth        AuthConfig `yaml:"auth"`
}

// AuthConfig selects credentials and where the OAuth token is cached.
type AuthConfig struct {
	CredentialsPath    string `yaml:"credentials_path"`
	ServiceAccountPath string `yaml:"service_account_path"`
	Subject            string `yaml:"subject"`
	TokenPath          string `yaml:"token_path"`
	TokenStore         string `yaml:"token_store"`
	CallbackPort       int    `yaml:"callback_port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		CalendarID: DefaultCalendarID,
		LogLevel:   DefaultLogLevel,
		Format:     DefaultFormat,
		Auth: AuthConfig{
			TokenStore:   TokenStoreFile,
			CallbackPort: DefaultCallbackPort,
		},
	}
	if p, err := GetCredentialsPath(); err == nil {
		cfg.Auth.CredentialsPath = p
	}
	if p, err := GetTokenPath(); err == nil {
		cfg.Auth.TokenPath = p
	}
	// A key dropped into the config directory switches to service account auth.
	if p, err := GetServiceAccountPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			cfg.Auth.ServiceAccountPath = p
		}
	}
	return cfg
}

// LoadDotEnv loads .env from the working directory if one exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
}

// Load reads the YAML config at path over the defaults. An empty path means
// the default location, and a missing file there is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := GetConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Auth.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return fmt.Errorf("unknown token_store %q (want %q or %q)", c.Auth.TokenStore, TokenStoreFile, TokenStoreKeyring)
	}
	if c.Auth.CallbackPort < 0 || c.Auth.CallbackPort > 65535 {
		return fmt.Errorf("callback_port %d out of range", c.Auth.CallbackPort)
	}
	return nil
}

// normalize fills zero values left by a partial file and expands "~/" paths.
func (c *Config) normalize() {
	def := Default()
	if c.CalendarID == "" {
		c.CalendarID = def.CalendarID
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.Auth.TokenStore == "" {
		c.Auth.TokenStore = def.Auth.TokenStore
	}
	if c.Auth.CredentialsPath == "" {
		c.Auth.CredentialsPath = def.Auth.CredentialsPath
	}
	if c.Auth.TokenPath == "" {
		c.Auth.TokenPath = def.Auth.TokenPath
	}
	c.Auth.CredentialsPath = expandHome(c.Auth.CredentialsPath)
	c.Auth.ServiceAccountPath = expandHome(c.Auth.ServiceAccountPath)
	c.Auth.TokenPath = expandHome(c.Auth.TokenPath)
}
