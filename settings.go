package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const maxRecentTables = 10

// Settings holds per-user state the application writes itself; user-edited
// options live in config.yaml
type Settings struct {
	TelemetryEnabled bool     `json:"telemetry_enabled"`
	FirstRunComplete bool     `json:"first_run_complete"`
	RecentTables     []string `json:"recent_tables,omitempty"`
}

// getConfigDir returns the configuration directory following XDG Base Directory spec
func getConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "tally"), nil
	}

	// Fall back to ~/.config/tally
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tally"), nil
}

func getSettingsPath() (string, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "settings.json"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	return nil
}

// LoadSettings reads settings.json; a missing file yields first-run defaults
func LoadSettings() (*Settings, error) {
	settingsPath, err := getSettingsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("could not parse settings file: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes the settings to settings.json
func SaveSettings(settings *Settings) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	settingsPath, err := getSettingsPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal settings: %w", err)
	}
	if err := os.WriteFile(settingsPath, data, 0o644); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	return nil
}

// TouchRecent moves entry to the front of the recent tables list.
func (s *Settings) TouchRecent(entry string) {
	s.RecentTables = slices.DeleteFunc(s.RecentTables, func(e string) bool { return e == entry })
	s.RecentTables = slices.Insert(s.RecentTables, 0, entry)
	if len(s.RecentTables) > maxRecentTables {
		s.RecentTables = s.RecentTables[:maxRecentTables]
	}
}
