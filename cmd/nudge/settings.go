// Package main - settings.go provides persistent user settings.
package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reviewnudge/nudge/pkg/label"
)

// Settings are the persisted user preferences.
type Settings struct {
	LabelStyle     label.Style `json:"label_style"`
	StrictAssignee bool        `json:"strict_assignee"`
}

// defaultSettings returns the documented defaults: abbreviated title labels
// and the strict (self-assignment) review filter.
func defaultSettings() Settings {
	return Settings{
		LabelStyle:     label.StyleShort,
		StrictAssignee: true,
	}
}

// settingsPath returns the settings file location under the user config dir.
func settingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "review-nudge", "settings.json"), nil
}

// loadSettings loads settings from disk or returns defaults.
func loadSettings() Settings {
	settings := defaultSettings()

	path, err := settingsPath()
	if err != nil {
		slog.Error("failed to locate settings directory", "error", err)
		return settings
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read settings", "error", err)
		}
		return settings
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Error("failed to parse settings, using defaults", "error", err)
		return defaultSettings()
	}

	if !settings.LabelStyle.Valid() {
		slog.Warn("unknown label style, using default", "style", settings.LabelStyle)
		settings.LabelStyle = label.StyleShort
	}

	slog.Info("loaded settings",
		"label_style", settings.LabelStyle,
		"strict_assignee", settings.StrictAssignee)
	return settings
}

// saveSettings writes settings to disk. Failures are logged, never fatal.
func saveSettings(settings Settings) {
	path, err := settingsPath()
	if err != nil {
		slog.Error("failed to locate settings directory", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		slog.Error("failed to create settings directory", "error", err)
		return
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		slog.Error("failed to marshal settings", "error", err)
		return
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Error("failed to save settings", "error", err)
		return
	}

	slog.Info("saved settings",
		"label_style", settings.LabelStyle,
		"strict_assignee", settings.StrictAssignee)
}
