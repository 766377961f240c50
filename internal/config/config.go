// Package config loads airbloom settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/airbloom/internal/gesture"
)

// DataDirName is the per-user directory holding the database and overrides.
const DataDirName = ".airbloom"

// Server holds HTTP settings.
type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// Camera holds capture and tracking settings.
type Camera struct {
	Device          int           `yaml:"device"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	FPS             int           `yaml:"fps"`
	Mirror          bool          `yaml:"mirror"`
	MotionThreshold float64       `yaml:"motion_threshold"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

// Gesture holds recognizer thresholds. Preset picks the base values that
// explicit fields then override.
type Gesture struct {
	Preset         string `yaml:"preset"`
	gesture.Config `yaml:",inline"`
}

// Speech holds the recognizer service settings.
type Speech struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"`
}

// Bloom holds flower generation settings.
type Bloom struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
}

// Store holds database settings.
type Store struct {
	Path string `yaml:"path"`
}

// Log holds logging settings.
type Log struct {
	Level string `yaml:"level"`
}

// Tray holds system tray settings.
type Tray struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the root configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Camera  Camera  `yaml:"camera"`
	Gesture Gesture `yaml:"gesture"`
	Speech  Speech  `yaml:"speech"`
	Bloom   Bloom   `yaml:"bloom"`
	Store   Store   `yaml:"store"`
	Log     Log     `yaml:"log"`
	Tray    Tray    `yaml:"tray"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	dbPath := "airbloom.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, DataDirName, "airbloom.db")
	}

	return &Config{
		Server: Server{Addr: ":8080"},
		Camera: Camera{
			Width:           640,
			Height:          480,
			FPS:             60,
			Mirror:          true,
			MotionThreshold: 1.0,
			IdleTimeout:     2 * time.Second,
		},
		Gesture: Gesture{Preset: "default", Config: gesture.DefaultConfig()},
		Speech: Speech{
			URL:      "http://127.0.0.1:8765",
			Timeout:  10 * time.Second,
			Language: "ja-JP",
		},
		Bloom: Bloom{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.5-flash-lite",
			Timeout:     30 * time.Second,
			Temperature: 0.9,
		},
		Store: Store{Path: dbPath},
		Log:   Log{Level: "info"},
	}
}

// Candidates lists the files Load tries when no path is given.
func Candidates() []string {
	paths := []string{}
	if p := os.Getenv("AIRBLOOM_CONFIG"); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join("config", "airbloom.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DataDirName, "airbloom.yaml"))
	}
	return paths
}

// Load reads configuration. An explicit path must exist; otherwise the
// first existing candidate is used, falling back to defaults. A .env file
// in the working directory is loaded first and environment variables
// override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		for _, p := range Candidates() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Server.StaticDir = expandHome(cfg.Server.StaticDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decode applies YAML from r on top of cfg. The gesture preset is resolved
// before the explicit gesture fields are applied.
func (c *Config) decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var head struct {
		Gesture struct {
			Preset string `yaml:"preset"`
		} `yaml:"gesture"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Gesture.Preset != "" {
		base, ok := gesture.Preset(head.Gesture.Preset)
		if !ok {
			return fmt.Errorf("unknown gesture preset %q", head.Gesture.Preset)
		}
		c.Gesture.Config = base
	}

	return yaml.Unmarshal(data, c)
}

// applyEnv overrides selected values from the environment.
func (c *Config) applyEnv() error {
	if v := os.Getenv("AIRBLOOM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AIRBLOOM_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("AIRBLOOM_CAMERA"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AIRBLOOM_CAMERA: %w", err)
		}
		c.Camera.Device = id
	}
	if v := os.Getenv("AIRBLOOM_SPEECH_URL"); v != "" {
		c.Speech.URL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Bloom.APIKey = v
	}
	if v := os.Getenv("AIRBLOOM_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("AIRBLOOM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks settings that would break the pipeline.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive (got %d)", c.Camera.FPS)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive (got %dx%d)", c.Camera.Width, c.Camera.Height)
	}
	if c.Speech.Timeout <= 0 {
		return errors.New("speech.timeout must be positive")
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	return c.Gesture.Config.Validate()
}
