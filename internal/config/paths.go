package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName      = "calnav"
	configFile         = "config.yaml"
	credentialsFile    = "credentials.json"
	serviceAccountFile = "service-account.json"
	tokenFile          = "token.json"
	configDirPermMode  = 0o700
)

// userHomeDir is swapped in tests.
var userHomeDir = os.UserHomeDir

// GetConfigDir returns the configuration directory path (~/.config/calnav)
func GetConfigDir() (string, error) {
	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName), nil
}

func pathInConfigDir(name string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

// GetConfigPath returns the path to the YAML config file
func GetConfigPath() (string, error) {
	return pathInConfigDir(configFile)
}

// GetCredentialsPath returns the path to the OAuth credentials file
func GetCredentialsPath() (string, error) {
	return pathInConfigDir(credentialsFile)
}

// GetServiceAccountPath returns the path to the service account key file
func GetServiceAccountPath() (string, error) {
	return pathInConfigDir(serviceAccountFile)
}

// GetTokenPath returns the path to the OAuth token file
func GetTokenPath() (string, error) {
	return pathInConfigDir(tokenFile)
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		// Tokens live here, keep it private.
		if err := os.MkdirAll(configDir, configDirPermMode); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	return nil
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	homeDir, err := userHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
