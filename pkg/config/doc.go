// Package config provides configuration loading for the console SDK and CLI.
//
// # Overview
//
// Configuration is read from environment variables prefixed with CONSOLE_,
// optionally overlaid on a YAML file pointed at by CONSOLE_CONFIG_FILE.
// Environment variables always win over file values.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL, ...)
//
// # Variables
//
//	CONSOLE_API_URL        Backend base URL (default http://localhost:8080)
//	CONSOLE_API_TIMEOUT    HTTP client timeout (default 30s)
//	CONSOLE_TOKEN_FILE     Session credential path (default ~/.console/token)
//	CONSOLE_REDIS_URL      Optional redis URL for shared sessions
//	CONSOLE_LOG_LEVEL      debug|info|warn|error (default info)
//	CONSOLE_CACHE_TTL      Reference-data cache TTL (default 30s)
//	CONSOLE_OTEL_ENABLED   Instrument the HTTP client (default false)
package config
