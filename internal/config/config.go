// Package config resolves the fathom CLI's directories and stored settings.
// Only non-secret settings live here; the API key goes to the OS keyring.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FilePermissions is the default permission mode for regular files
	FilePermissions = 0o600
	// DirPermissions is the default permission mode for directories
	DirPermissions = 0o700

	// DefaultAPIURL is used when no API URL is configured anywhere.
	DefaultAPIURL = "https://api.fathom.dev"

	settingsFileName = "settings.json"
	statsFileName    = "stats.db"
	debugLogFileName = "debug.log"
	receiptFileName  = "fathom-receipt.json"
)

// Settings holds non-sensitive CLI settings persisted in the config dir.
type Settings struct {
	APIURL  string `json:"api_url,omitempty"`
	AppURL  string `json:"app_url,omitempty"`
	OrgName string `json:"org_name,omitempty"`
}

// ConfigDir returns the XDG config directory for fathom, creating it with
// private permissions when missing. Falls back to ~/.config/fathom when
// XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "fathom")
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// StateDir returns the XDG state directory for fathom (stats database,
// debug log). Falls back to ~/.local/state/fathom.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, "fathom")
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// StatsDBPath returns the path of the query stats database.
func StatsDBPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, statsFileName), nil
}

// DebugLogPath returns the path of the debug log file.
func DebugLogPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, debugLogFileName), nil
}

// ReceiptPath returns the installer receipt path, used to decide whether
// this binary is managed by the standalone installer.
func ReceiptPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, receiptFileName), nil
}

// Load reads the settings file; a missing file returns zero-value settings.
func Load() (Settings, error) {
	var s Settings
	dir, err := ConfigDir()
	if err != nil {
		return s, err
	}
	data, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Save writes the settings file with private permissions.
func Save(s Settings) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, settingsFileName), data, FilePermissions)
}

// DeriveAppURL maps an API URL to the matching web app URL
// (api.fathom.dev -> www.fathom.dev). Unknown hosts are returned unchanged.
func DeriveAppURL(apiURL string) string {
	return strings.Replace(apiURL, "api.", "www.", 1)
}
