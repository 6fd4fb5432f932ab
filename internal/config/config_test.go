package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Gesture.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Gesture.Timeframe)
	assert.Equal(t, 20, cfg.Display.Capacity)
	assert.Equal(t, 100*time.Millisecond, cfg.Display.PutTimeout)
	assert.Equal(t, "literal", cfg.Violence.LoneFemaleRule)
	assert.Zero(t, cfg.Alert.Cooldown)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "abhayam.yaml", `
regions_file: cams.json
gesture:
  threshold: 5
  timeframe: 4s
alert:
  cooldown: 30s
  messaging:
    provider: mqtt
    broker: tcp://localhost:1883
display:
  surface: none
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cams.json", cfg.RegionsFile)
	assert.Equal(t, 5, cfg.Gesture.Threshold)
	assert.Equal(t, 4*time.Second, cfg.Gesture.Timeframe)
	assert.Equal(t, 30*time.Second, cfg.Alert.Cooldown)
	assert.Equal(t, "mqtt", cfg.Alert.Messaging.Provider)
	// Untouched keys keep their defaults.
	assert.Equal(t, "abhayam/alerts", cfg.Alert.Messaging.Topic)
	assert.Equal(t, 20, cfg.Display.Capacity)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("ABHAYAM_TWILIO_SID", "AC123")
	t.Setenv("ABHAYAM_TWILIO_TOKEN", "secret")
	t.Setenv("ABHAYAM_MESSAGE_FROM", "+10000000000")
	t.Setenv("ABHAYAM_MESSAGE_TO", "+19999999999")

	path := writeFile(t, "abhayam.yaml", "alert:\n  messaging:\n    provider: twilio\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "AC123", cfg.Alert.Messaging.AccountSID)
	assert.Equal(t, "secret", cfg.Alert.Messaging.AuthToken)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt yaml", "gesture: [threshold"},
		{"zero threshold", "gesture:\n  threshold: 0\n"},
		{"unknown rule", "violence:\n  lone_female_rule: maybe\n"},
		{"twilio without credentials", "alert:\n  messaging:\n    provider: twilio\n"},
		{"mjpeg without server", "display:\n  surface: mjpeg\n"},
		{"video without device", "capture:\n  backend: video\n"},
		{"mock backend", "capture:\n  backend: mock\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "abhayam.yaml", tt.content))
			require.Error(t, err)

			var loadErr *ConfigLoadError
			assert.True(t, errors.As(err, &loadErr), "want *ConfigLoadError, got %T", err)
		})
	}
}

func TestValidate_CaptureBackends(t *testing.T) {
	for _, backend := range []string{"screen", "video"} {
		cfg := Default()
		cfg.Capture.Backend = backend
		cfg.Capture.Device = "0"
		assert.NoError(t, Validate(&cfg), backend)
	}

	cfg := Default()
	cfg.Capture.Backend = "mock"
	assert.ErrorContains(t, Validate(&cfg), "capture.backend must be screen or video")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	var loadErr *ConfigLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRegions(t *testing.T) {
	path := writeFile(t, "regions.json", `{
		"regions": [[0, 0, 640, 480], [700, 100, -300, 200]],
		"locations": {"1": "Lobby"}
	}`)

	got, err := LoadRegions(path)
	require.NoError(t, err)

	want := []region.Region{
		{ID: 1, X: 0, Y: 0, Width: 640, Height: 480, Location: "Lobby"},
		{ID: 2, X: 400, Y: 100, Width: 300, Height: 200, Location: region.UnknownLocation},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadRegions() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRegions_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"corrupt", `{"regions": [`},
		{"empty list", `{"regions": []}`},
		{"missing key", `{"locations": {"1": "Lobby"}}`},
		{"short tuple", `{"regions": [[1, 2, 3]]}`},
		{"zero area", `{"regions": [[1, 2, 0, 10]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegions("regions.json", []byte(tt.data))
			var loadErr *ConfigLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "regions.json", loadErr.Path)
		})
	}

	_, err := ParseRegions("regions.json", []byte(`{"regions": []}`))
	assert.ErrorIs(t, err, ErrNoRegions)
}
