package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewnudge/nudge/pkg/label"
)

func TestDefaultSettings(t *testing.T) {
	settings := defaultSettings()
	assert.Equal(t, label.StyleShort, settings.LabelStyle)
	assert.True(t, settings.StrictAssignee)
}

func TestSettingsRoundtrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	saveSettings(Settings{LabelStyle: label.StyleNumber, StrictAssignee: false})

	loaded := loadSettings()
	assert.Equal(t, label.StyleNumber, loaded.LabelStyle)
	assert.False(t, loaded.StrictAssignee)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.Equal(t, defaultSettings(), loadSettings())
}

func TestLoadSettingsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "review-nudge", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	assert.Equal(t, defaultSettings(), loadSettings())
}

func TestLoadSettingsUnknownLabelStyle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "review-nudge", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`{"label_style":"emoji","strict_assignee":false}`), 0o600))

	loaded := loadSettings()
	assert.Equal(t, label.StyleShort, loaded.LabelStyle, "unknown style falls back to default")
	assert.False(t, loaded.StrictAssignee, "other fields survive the fallback")
}
