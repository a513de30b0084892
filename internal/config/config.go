// Package config provides environment-driven configuration for the lead-intake server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is stamped at link time with
// -ldflags "-X github.com/persistorai/leadintake/internal/config.Version=<tag>".
var Version = "dev"

// Secret is a configuration value that never prints or marshals its contents.
type Secret string

func (s Secret) String() string { return "[REDACTED]" }

func (s Secret) GoString() string { return "[REDACTED]" }

func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Storage backends selected by DATABASE_URL.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	DBMaxConns  int

	ListenHost  string
	Port        string
	MetricsPort string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	JWTSecret        Secret
	TokenTTL         time.Duration
	DemoEmail        string
	DemoName         string
	DemoPasswordHash Secret
	DemoPassword     Secret

	ImportMaxRows      int
	ImportMaxBytes     int64
	HistoryPreview     int
	AuditRetentionDays int
}

// env reads variables and remembers every malformed one, so Load can report
// them together.
type env struct {
	errs []error
}

func (e *env) str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func (e *env) intRange(key string, fallback, lo, hi int) int {
	raw := e.str(key, strconv.Itoa(fallback))

	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		e.errs = append(e.errs, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi))
		return fallback
	}

	return v
}

func (e *env) durationRange(key string, fallback, lo, hi time.Duration) time.Duration {
	d, err := time.ParseDuration(e.str(key, fallback.String()))
	if err != nil || d < lo || d > hi {
		e.errs = append(e.errs, fmt.Errorf("%s must be a duration between %s and %s", key, lo, hi))
		return fallback
	}

	return d
}

func (e *env) list(key, fallback string) []string {
	parts := strings.Split(e.str(key, fallback), ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}

// Load reads configuration from the environment. The returned error lists
// every invalid setting, not only the first.
func Load() (*Config, error) {
	e := &env{}

	cfg := &Config{
		DatabaseURL: Secret(e.str("DATABASE_URL", "")),
		DBMaxConns:  e.intRange("DB_MAX_CONNS", 21, 2, 200),

		ListenHost:  e.str("LISTEN_HOST", "127.0.0.1"),
		Port:        e.str("PORT", "3030"),
		MetricsPort: e.str("METRICS_PORT", "9091"),
		CORSOrigins: e.list("CORS_ORIGINS", "http://localhost:3000"),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "json"),

		JWTSecret:        Secret(e.str("JWT_SECRET", "")),
		TokenTTL:         e.durationRange("TOKEN_TTL", 12*time.Hour, time.Minute, 7*24*time.Hour),
		DemoEmail:        e.str("DEMO_EMAIL", "demo@example.com"),
		DemoName:         e.str("DEMO_NAME", "Demo Agent"),
		DemoPasswordHash: Secret(e.str("DEMO_PASSWORD_HASH", "")),
		DemoPassword:     Secret(e.str("DEMO_PASSWORD", "")),

		ImportMaxRows:      e.intRange("IMPORT_MAX_ROWS", 200, 1, 10_000),
		ImportMaxBytes:     int64(e.intRange("IMPORT_MAX_BYTES", 5<<20, 1024, 100<<20)),
		HistoryPreview:     e.intRange("HISTORY_PREVIEW", 5, 0, 100),
		AuditRetentionDays: e.intRange("AUDIT_RETENTION_DAYS", 90, 1, 3650),
	}

	if err := errors.Join(append(e.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the API listen address in host:port form.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port form.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

// Backend reports which store DATABASE_URL selects.
func (c *Config) Backend() string {
	dsn := c.DatabaseURL.Value()
	if strings.HasPrefix(dsn, "sqlite:") || strings.HasPrefix(dsn, "file:") {
		return BackendSQLite
	}

	return BackendPostgres
}
