package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cobaltcrm/console/pkg/observability"
)

// Config holds all SDK and CLI configuration
type Config struct {
	// API configuration
	API APIConfig `yaml:"api"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// APIConfig holds backend client configuration
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	OTelEnabled bool          `yaml:"otel_enabled"`
}

// SessionConfig holds session credential storage configuration
type SessionConfig struct {
	// TokenFile is where the bearer credential persists between runs
	TokenFile string `yaml:"token_file"`

	// RedisURL, when set, shares the session across processes
	RedisURL string `yaml:"redis_url"`
}

// ObservabilityConfig holds logging settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel `yaml:"-"`

	// LogLevelName is the YAML-facing representation of LogLevel
	LogLevelName string `yaml:"log_level"`
}

// Load loads configuration from CONSOLE_CONFIG_FILE (if set) and the
// environment. Environment variables override file values.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONSOLE_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.loadEnv()
	cfg.Observability.LogLevel = parseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "http://localhost:8080",
			Timeout:  30 * time.Second,
			CacheTTL: 30 * time.Second,
		},
		Session: SessionConfig{
			TokenFile: defaultTokenFile(),
		},
		Observability: ObservabilityConfig{
			LogLevelName: "info",
		},
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".console-token"
	}
	return filepath.Join(home, ".console", "token")
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadEnv() {
	c.API.BaseURL = getEnv("CONSOLE_API_URL", c.API.BaseURL)
	c.API.Timeout = getEnvDuration("CONSOLE_API_TIMEOUT", c.API.Timeout)
	c.API.CacheTTL = getEnvDuration("CONSOLE_CACHE_TTL", c.API.CacheTTL)
	c.API.OTelEnabled = getEnvBool("CONSOLE_OTEL_ENABLED", c.API.OTelEnabled)
	c.Session.TokenFile = getEnv("CONSOLE_TOKEN_FILE", c.Session.TokenFile)
	c.Session.RedisURL = getEnv("CONSOLE_REDIS_URL", c.Session.RedisURL)
	c.Observability.LogLevelName = getEnv("CONSOLE_LOG_LEVEL", c.Observability.LogLevelName)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("API base URL must be an http or https URL: %s", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}
	if c.Session.TokenFile == "" {
		return fmt.Errorf("session token file is required")
	}

	switch strings.ToLower(c.Observability.LogLevelName) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevelName)
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
