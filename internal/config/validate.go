package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const minJWTSecretLen = 32

var (
	loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

	// Loopback, or every interface for containers behind an external boundary.
	listenHosts = append([]string{"0.0.0.0", "::"}, loopbackHosts...)
)

// validate checks the settings that are not plain numeric ranges. Each check
// contributes at most one error.
func (c *Config) validate() []error {
	checks := []func() error{
		c.checkDatabase,
		c.checkListen,
		c.checkCORS,
		c.checkJWT,
		c.checkDemoAccount,
		c.checkLogFormat,
	}

	var errs []error

	for _, check := range checks {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (c *Config) checkDatabase() error {
	dsn := c.DatabaseURL.Value()

	switch {
	case dsn == "":
		return errors.New("DATABASE_URL is required")
	case c.Backend() == BackendSQLite:
		if strings.TrimPrefix(dsn, "sqlite:") == "" {
			return errors.New("DATABASE_URL sqlite: must name a database file")
		}

		return nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return errors.New("DATABASE_URL scheme must be postgres://, postgresql://, sqlite: or file:")
	}

	host := u.Hostname()
	if host == "" {
		return errors.New("DATABASE_URL must include a host")
	}

	if !slices.Contains(loopbackHosts, host) && u.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", host)
	}

	return nil
}

func parsePort(key, v string) (int, error) {
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", key)
	}

	return port, nil
}

func (c *Config) checkListen() error {
	if !slices.Contains(listenHosts, c.ListenHost) {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	api, err := parsePort("PORT", c.Port)
	if err != nil {
		return err
	}

	metrics, err := parsePort("METRICS_PORT", c.MetricsPort)
	if err != nil {
		return err
	}

	if api == metrics {
		return errors.New("METRICS_PORT must differ from PORT")
	}

	return nil
}

func (c *Config) checkCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return errors.New("CORS_ORIGINS must not contain wildcard '*'")
		}

		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}

		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) checkJWT() error {
	switch n := len(c.JWTSecret.Value()); {
	case n == 0:
		return errors.New("JWT_SECRET is required")
	case n < minJWTSecretLen:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLen, n)
	}

	return nil
}

func (c *Config) checkDemoAccount() error {
	if !strings.Contains(c.DemoEmail, "@") {
		return fmt.Errorf("DEMO_EMAIL must be an email address, got %q", c.DemoEmail)
	}

	hash, plain := c.DemoPasswordHash.Value() != "", c.DemoPassword.Value() != ""

	switch {
	case !hash && !plain:
		return errors.New("DEMO_PASSWORD_HASH or DEMO_PASSWORD is required")
	case hash && plain:
		return errors.New("set only one of DEMO_PASSWORD_HASH and DEMO_PASSWORD")
	}

	return nil
}

func (c *Config) checkLogFormat() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat)
	}

	return nil
}
