package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcrm/console/pkg/observability"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.NotEmpty(t, cfg.Session.TokenFile)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONSOLE_API_URL", "https://crm.example.com")
	t.Setenv("CONSOLE_API_TIMEOUT", "5s")
	t.Setenv("CONSOLE_LOG_LEVEL", "debug")
	t.Setenv("CONSOLE_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Session.RedisURL)
}

func TestLoadFileThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	content := `
api:
  base_url: https://file.example.com
  timeout: 10s
session:
  token_file: /tmp/tok
observability:
  log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONSOLE_CONFIG_FILE", path)
	t.Setenv("CONSOLE_API_URL", "https://env.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL, "env overrides file")
	assert.Equal(t, 10*time.Second, cfg.API.Timeout, "file overrides defaults")
	assert.Equal(t, observability.WarnLevel, cfg.Observability.LogLevel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base URL", func(c *Config) { c.API.BaseURL = "" }},
		{"non-http URL", func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"empty token file", func(c *Config) { c.Session.TokenFile = "" }},
		{"bad log level", func(c *Config) { c.Observability.LogLevelName = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
