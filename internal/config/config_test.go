package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airbloom/internal/gesture"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airbloom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gesture.DefaultConfig(), cfg.Gesture.Config)
	assert.Equal(t, 60, cfg.Camera.FPS)
	assert.True(t, cfg.Camera.Mirror)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("AIRBLOOM_ADDR", "")
	path := writeConfig(t, `
server:
  addr: ":9090"
  static_dir: ./web
camera:
  device: 2
  fps: 30
  idle_timeout: 3s
gesture:
  close_threshold: 50
  cooldown: 90
speech:
  timeout: 15s
bloom:
  model: gemini-test
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "./web", cfg.Server.StaticDir)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, 30, cfg.Camera.FPS)
	assert.Equal(t, 640, cfg.Camera.Width, "unset fields keep defaults")
	assert.Equal(t, 3*time.Second, cfg.Camera.IdleTimeout)
	assert.Equal(t, 50.0, cfg.Gesture.CloseThreshold)
	assert.Equal(t, 90, cfg.Gesture.Cooldown)
	assert.Equal(t, gesture.DefaultMinExtent, cfg.Gesture.MinExtent)
	assert.Equal(t, 15*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, "gemini-test", cfg.Bloom.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Preset(t *testing.T) {
	path := writeConfig(t, `
gesture:
  preset: loose
  cooldown: 45
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	loose := gesture.LooseConfig()
	assert.Equal(t, loose.CloseThreshold, cfg.Gesture.CloseThreshold)
	assert.Equal(t, loose.MinExtent, cfg.Gesture.MinExtent)
	assert.Equal(t, 45, cfg.Gesture.Cooldown, "explicit field beats preset")
}

func TestLoad_UnknownPreset(t *testing.T) {
	_, err := Load(writeConfig(t, "gesture:\n  preset: wobbly\n"))
	assert.Error(t, err)
}

func TestLoad_InvalidGesture(t *testing.T) {
	_, err := Load(writeConfig(t, "gesture:\n  min_points: 0\n"))
	assert.ErrorIs(t, err, gesture.ErrInvalidConfig)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AIRBLOOM_ADDR", ":7000")
	t.Setenv("AIRBLOOM_CAMERA", "3")
	t.Setenv("AIRBLOOM_SPEECH_URL", "http://speech:1")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("AIRBLOOM_DB", "/tmp/x.db")
	t.Setenv("AIRBLOOM_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Camera.Device)
	assert.Equal(t, "http://speech:1", cfg.Speech.URL)
	assert.Equal(t, "secret", cfg.Bloom.APIKey)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadCameraEnv(t *testing.T) {
	t.Setenv("AIRBLOOM_CAMERA", "front")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero fps", func(c *Config) { c.Camera.FPS = 0 }},
		{"zero width", func(c *Config) { c.Camera.Width = 0 }},
		{"zero speech timeout", func(c *Config) { c.Speech.Timeout = 0 }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"bad gesture", func(c *Config) { c.Gesture.MinExtent = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AIRBLOOM_DB", "")
	path := writeConfig(t, `
store:
  path: ~/garden/airbloom.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "garden", "airbloom.db"), cfg.Store.Path)
}
