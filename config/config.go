// Package config loads the console's YAML configuration.
//
// Values come from Default, then the config file, then environment
// overrides. Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig   = "TASKCONSOLE_CONFIG"
	EnvServer   = "TASKCONSOLE_SERVER"
	EnvLogLevel = "TASKCONSOLE_LOG_LEVEL"
)

// Config is the console configuration.
type Config struct {
	// ServerURL is the backend base URL.
	ServerURL string `yaml:"server_url"`

	// Timeout bounds each backend request, as a Go duration string.
	Timeout string `yaml:"timeout"`

	// PageSize is the number of rows per table page.
	PageSize int `yaml:"page_size"`

	// SessionFile holds the signed-in session between invocations.
	SessionFile string `yaml:"session_file"`

	// SnapshotDB is the SQLite file holding offline snapshots and activity.
	SnapshotDB string `yaml:"snapshot_db"`

	// ExportDir is where CSV exports are written.
	ExportDir string `yaml:"export_dir"`

	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

func baseDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "taskconsole")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback, "taskconsole")
}

// DefaultPath is the config file used when none is named.
func DefaultPath() string {
	return filepath.Join(baseDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	state := baseDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	return &Config{
		ServerURL:   "http://localhost:5000",
		Timeout:     "15s",
		PageSize:    10,
		SessionFile: filepath.Join(state, "session.json"),
		SnapshotDB:  filepath.Join(state, "snapshot.db"),
		ExportDir:   ".",
		LogLevel:    "warn",
	}
}

// Load reads the config file at path. An empty path falls back to
// $TASKCONSOLE_CONFIG and then DefaultPath. A missing file leaves the
// defaults in place.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.SessionFile, &c.SnapshotDB, &c.ExportDir} {
		*p = expandHome(os.ExpandEnv(*p))
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerURL == "" {
		errs = append(errs, errors.New("server_url is required"))
	} else if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server_url %q must be an http(s) URL", c.ServerURL))
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("timeout %q must be a positive duration", c.Timeout))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q is not a valid level", c.LogLevel))
	}
	if c.SessionFile == "" {
		errs = append(errs, errors.New("session_file is required"))
	}
	if c.SnapshotDB == "" {
		errs = append(errs, errors.New("snapshot_db is required"))
	}

	return errors.Join(errs...)
}

// RequestTimeout returns Timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Level returns LogLevel as a zap level, defaulting to warn.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.WarnLevel
	}
	return level
}
