// Package config provides centralized configuration for the server and the
// command-line tool. Every setting has a default, may come from a YAML file,
// and is overridden by environment variables and then by explicitly set
// command-line flags. All settings are validated on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Extract  ExtractConfig
	Report   ReportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `key:"server.host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `key:"server.port" env:"SERVER_PORT" default:"8080" flag:"port"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `key:"server.read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `key:"server.write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `key:"server.idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `key:"server.shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `key:"server.request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, extraction
	// history is kept in memory only.
	URL string `key:"database.url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `key:"database.max_conns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `key:"database.min_conns" env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `key:"database.max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `key:"database.max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ExtractConfig holds settings for extraction requests.
type ExtractConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `key:"extract.max_file_size" env:"EXTRACT_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of extractions allowed to run at once (default: 5)
	MaxConcurrent int `key:"extract.max_concurrent" env:"EXTRACT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `key:"extract.max_wait_time" env:"EXTRACT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single extraction (default: 5m)
	Timeout time.Duration `key:"extract.timeout" env:"EXTRACT_TIMEOUT" default:"5m"`

	// MaxLineSize is the longest accepted input line in bytes (default: 4MB)
	MaxLineSize int `key:"extract.max_line_size" env:"EXTRACT_MAX_LINE_SIZE" default:"4194304"`

	// Retained is how many extractions the in-memory store keeps (default: 100)
	Retained int `key:"extract.retained" env:"EXTRACT_RETAINED" default:"100"`
}

// ReportConfig holds settings for the command-line reports.
type ReportConfig struct {
	// Extension selects files when a directory is given (default: .csv)
	Extension string `key:"report.extension" env:"REPORT_EXTENSION" default:".csv" flag:"ext"`

	// SampleRows is the number of sample lines per file in a scan (default: 5)
	SampleRows int `key:"report.sample_rows" env:"REPORT_SAMPLE_ROWS" default:"5" flag:"sample-rows"`

	// OutputFile is where a directory scan writes its JSON summary
	OutputFile string `key:"report.output_file" env:"REPORT_OUTPUT_FILE" default:"read_directory_metadata.json"`

	// Format is the console output format: table or json (default: table)
	Format string `key:"report.format" env:"REPORT_FORMAT" default:"table" flag:"format"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `key:"rate.enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 100)
	RequestsPerMinute int `key:"rate.requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `key:"security.trusted_proxies" env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `key:"security.require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `key:"security.api_keys" env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `key:"logging.level" env:"LOG_LEVEL" default:"info" flag:"log-level"`

	// Format is the log format: text or json (default: text)
	Format string `key:"logging.format" env:"LOG_FORMAT" default:"text" flag:"log-format"`

	// SeqURL sends logs to a Seq server as well when set
	SeqURL string `key:"logging.seq_url" env:"LOG_SEQ_URL"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Persistent reports whether extraction history goes to PostgreSQL.
func (c *DatabaseConfig) Persistent() bool {
	return c.URL != ""
}
