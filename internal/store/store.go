// Package store is the PostgreSQL backend: buyer records with their change
// history, users and the operational audit log.
//
// Every buyer mutation writes the record and its history entry in one
// transaction. Helpers that take a pgx.Tx let create, update and import share
// that path.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base carries the pool and logger shared by the stores that embed it.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// txKind selects a transaction's access mode and deadline.
type txKind struct {
	mode    pgx.TxAccessMode
	timeout time.Duration
}

var (
	writeTx = txKind{mode: pgx.ReadWrite, timeout: defaultQueryTimeout}
	readTx  = txKind{mode: pgx.ReadOnly, timeout: defaultQueryTimeout}

	// streamTx has no deadline of its own; the caller's context bounds it.
	streamTx = txKind{mode: pgx.ReadOnly}
)

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// inTx runs fn in one transaction, committing when fn returns nil and rolling
// back otherwise. Errors from fn are returned unchanged.
func (b *Base) inTx(ctx context.Context, kind txKind, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if kind.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, kind.timeout)
		defer cancel()
	}

	return pgx.BeginTxFunc(ctx, b.Pool, pgx.TxOptions{AccessMode: kind.mode}, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// HealthCheck pings the database.
func (b *Base) HealthCheck(ctx context.Context) error {
	return b.Pool.HealthCheck(ctx)
}

// CheckSchema fails unless the buyer tables have been migrated.
func (b *Base) CheckSchema(ctx context.Context) error {
	var missing []string

	err := b.Pool.QueryRow(ctx, `
		SELECT COALESCE(array_agg(t), '{}')
		FROM unnest(ARRAY['users', 'buyers', 'buyer_history', 'audit_log']) AS t
		WHERE to_regclass('public.' || t) IS NULL`,
	).Scan(&missing)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema check: missing tables %v", missing)
	}

	return nil
}
