// Package litestore is the embedded SQLite backend. It implements the same
// store contracts as the PostgreSQL store on top of gorm and the pure-Go
// modernc.org/sqlite driver, for single-node deployments, the CLI demo mode
// and fast tests.
//
// The database runs with a single open connection, so every transaction is
// serialized. That is what makes the read-check-write cycle of an update
// atomic here; there are no row locks to take.
package litestore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"modernc.org/sqlite"

	"github.com/persistorai/leadintake/internal/domain"
)

// foldFunc is the SQL name of the Unicode-aware lower-casing function used by
// buyer search. SQLite's own LOWER only folds ASCII.
const foldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Store is the SQLite-backed implementation of the buyer, user and audit stores.
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

var (
	_ domain.BuyerStore    = (*Store)(nil)
	_ domain.UserStore     = (*Store)(nil)
	_ domain.HealthChecker = (*Store)(nil)
)

// IsDSN reports whether dsn selects the SQLite backend.
func IsDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite:") || strings.HasPrefix(dsn, "file:")
}

// Open opens (creating if needed) the SQLite database named by dsn and
// migrates its schema. A "sqlite:" prefix is stripped; "file:" DSNs are
// passed to the driver unchanged.
func Open(dsn string, log *logrus.Logger) (*Store, error) {
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		return nil, errors.New("sqlite DSN is empty")
	}

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{
			Logger: logger.New(log, logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			}),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	return New(db, log)
}

// New wraps an open gorm handle, pins it to one connection and migrates.
func New(db *gorm.DB, log *logrus.Logger) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}, &buyerRow{}, &historyRow{}, &auditRow{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// HealthCheck verifies the database file is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite: %w", err)
	}

	return nil
}

// CheckSchema verifies the migrated tables are present.
func (s *Store) CheckSchema(ctx context.Context) error {
	m := s.db.WithContext(ctx).Migrator()

	for _, table := range []any{&userRow{}, &buyerRow{}, &historyRow{}, &auditRow{}} {
		if !m.HasTable(table) {
			return fmt.Errorf("schema check: table for %T missing", table)
		}
	}

	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
