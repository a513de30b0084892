package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/config"
	"github.com/persistorai/leadintake/internal/db"
	"github.com/persistorai/leadintake/internal/db/migrations"
	"github.com/persistorai/leadintake/internal/dbpool"
	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/litestore"
	"github.com/persistorai/leadintake/internal/store"
)

// backend bundles the store contracts one database serves.
type backend struct {
	buyers domain.BuyerStore
	users  domain.UserStore
	audit  domain.AuditStore
	health domain.HealthChecker
	close  func()
}

// openBackend connects to the database DATABASE_URL names and brings its
// schema up to date.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	if cfg.Backend() == config.BackendSQLite {
		return openSQLite(cfg.DatabaseURL.Value(), log)
	}

	return openPostgres(ctx, cfg, log)
}

func openSQLite(dsn string, log *logrus.Logger) (*backend, error) {
	ls, err := litestore.Open(dsn, log)
	if err != nil {
		return nil, err
	}

	log.Info("using sqlite backend")

	return &backend{
		buyers: ls,
		users:  ls,
		audit:  ls,
		health: ls,
		close: func() {
			if err := ls.Close(); err != nil {
				log.WithError(err).Warn("closing sqlite")
			}
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns)) //nolint:gosec // validated to 2..200.
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		pool.Close()
		return nil, err
	}

	registerPoolMetrics(pool, log)
	log.WithField("max_conns", cfg.DBMaxConns).Info("using postgres backend")

	base := store.Base{Pool: pool, Log: log}
	buyers := store.NewBuyerStore(base)

	return &backend{
		buyers: buyers,
		users:  store.NewUserStore(base),
		audit:  store.NewAuditStore(base),
		health: buyers,
		close:  pool.Close,
	}, nil
}

func registerPoolMetrics(pool *dbpool.Pool, log *logrus.Logger) {
	for _, c := range pool.Collectors() {
		if err := prometheus.Register(c); err != nil {
			var dup prometheus.AlreadyRegisteredError
			if !errors.As(err, &dup) {
				log.WithError(err).Warn("registering pool metrics")
			}
		}
	}
}
