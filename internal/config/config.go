// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Grid     GridConfig
	Import   ImportConfig
	Snapshot SnapshotConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	// Supports both SERVER_PORT and PORT env vars for compatibility
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// RateLimit is requests per minute per client IP; 0 disables (default: 300)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"300"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of keys; when set, every mutating
	// request must carry one in X-API-Key
	APIKeys []string `env:"API_KEYS"`
}

// GridConfig holds the initial table state.
type GridConfig struct {
	// DefaultPageSize is the rows per page of a fresh store (default: 10)
	DefaultPageSize int `env:"GRID_DEFAULT_PAGE_SIZE" default:"10"`

	// ColumnsFile is an optional YAML column set replacing the built-in columns
	ColumnsFile string `env:"GRID_COLUMNS_FILE"`

	// SeedSampleData loads the demo rows when no snapshot exists (default: true)
	SeedSampleData bool `env:"GRID_SEED_SAMPLE_DATA" default:"true"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxWaitTime is how long a request waits for the import slot (default: 5s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"5s"`

	// Timeout bounds how long a request waits for its import result (default: 2m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`
}

// SnapshotConfig holds document persistence settings.
type SnapshotConfig struct {
	// Path is the snapshot file; empty disables persistence
	Path string `env:"SNAPSHOT_PATH"`

	// Interval is how often the autosave checks for changes (default: 30s)
	Interval time.Duration `env:"SNAPSHOT_INTERVAL" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Enabled reports whether snapshots are persisted.
func (c *SnapshotConfig) Enabled() bool {
	return c.Path != ""
}
