package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvServer, "")
	t.Setenv(EnvLogLevel, "")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
	assert.Equal(t, zapcore.WarnLevel, cfg.Level())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().ServerURL, cfg.ServerURL)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server_url: https://tasks.example.com
page_size: 25
log_level: debug
export_dir: ~/exports
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.ServerURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
	assert.Equal(t, "15s", cfg.Timeout)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "exports"), cfg.ExportDir)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server_url: http://file:5000\nlog_level: info\n")
	t.Setenv(EnvServer, "http://env:5000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:5000", cfg.ServerURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_PathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "page_size: 5\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PageSize)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "page_size: [oops"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "page_size: 0\n"))
	assert.ErrorContains(t, err, "page_size")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty server", func(c *Config) { c.ServerURL = "" }, "server_url is required"},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://x" }, "server_url"},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, "timeout"},
		{"negative timeout", func(c *Config) { c.Timeout = "-1s" }, "timeout"},
		{"page size", func(c *Config) { c.PageSize = -1 }, "page_size"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"session file", func(c *Config) { c.SessionFile = "" }, "session_file"},
		{"snapshot db", func(c *Config) { c.SnapshotDB = "" }, "snapshot_db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
