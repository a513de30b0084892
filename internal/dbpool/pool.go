// Package dbpool owns the PostgreSQL connection pool shared by the stores.
package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMaxConns is the pool size used when the caller passes no limit.
	DefaultMaxConns = 20

	applicationName = "leadintake"

	// statementTimeout bounds every statement server-side, in milliseconds.
	statementTimeout = "30000"
)

// Pool wraps pgxpool.Pool. The pool itself stays unexported so stores reach
// the database only through these methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects and pings the database. maxConns <= 0 selects
// DefaultMaxConns. Connections identify themselves as "leadintake" in
// pg_stat_activity unless the URL sets application_name.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	params := cfg.ConnConfig.RuntimeParams
	params["statement_timeout"] = statementTimeout

	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}

	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = min(2, maxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query runs a statement that returns rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow runs a statement that returns at most one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// BeginTx starts a transaction with opts.
func (p *Pool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) { //nolint:gocritic // matches pgxpool.Pool.
	return p.pool.BeginTx(ctx, opts)
}

// HealthCheck round-trips a trivial query.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	return nil
}

// ConnString returns the URL the pool was created from, for goose.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Collectors exposes pool usage as gauges for registration with Prometheus.
func (p *Pool) Collectors() []prometheus.Collector {
	gauge := func(name, help string, value func(*pgxpool.Stat) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "leadintake_db_pool_" + name,
			Help: help,
		}, func() float64 { return float64(value(p.pool.Stat())) })
	}

	return []prometheus.Collector{
		gauge("acquired_conns", "Connections currently checked out", (*pgxpool.Stat).AcquiredConns),
		gauge("idle_conns", "Idle connections in the pool", (*pgxpool.Stat).IdleConns),
		gauge("total_conns", "All open connections", (*pgxpool.Stat).TotalConns),
		gauge("max_conns", "Configured pool size", (*pgxpool.Stat).MaxConns),
	}
}

// Close closes every connection.
func (p *Pool) Close() {
	p.pool.Close()
}
