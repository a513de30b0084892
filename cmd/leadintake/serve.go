package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/leadintake/internal/api"
	"github.com/persistorai/leadintake/internal/auth"
	"github.com/persistorai/leadintake/internal/config"
	"github.com/persistorai/leadintake/internal/db"
	"github.com/persistorai/leadintake/internal/security"
	"github.com/persistorai/leadintake/internal/service"
	"github.com/persistorai/leadintake/internal/validation"
)

const (
	shutdownTimeout = 15 * time.Second
	auditQueueSize  = 1000
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, newLogger(cfg))
		},
	}
}

// newCredentials builds the demo credential checker, hashing a plain
// DEMO_PASSWORD at startup.
func newCredentials(cfg *config.Config) (*auth.StaticCredentials, error) {
	hash := cfg.DemoPasswordHash.Value()
	if hash == "" {
		var err error

		hash, err = auth.HashPassword(cfg.DemoPassword.Value())
		if err != nil {
			return nil, err
		}
	}

	return auth.NewStaticCredentials(cfg.DemoEmail, cfg.DemoName, hash)
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	creds, err := newCredentials(cfg)
	if err != nil {
		return fmt.Errorf("demo credentials: %w", err)
	}

	auditSvc := service.NewAuditService(b.audit, log)
	auditWorker := service.NewAuditWorker(auditSvc, log, auditQueueSize)
	engine := validation.New()

	buyerSvc := service.NewBuyerService(b.buyers, engine, auditWorker, log, cfg.HistoryPreview)
	authSvc := service.NewAuthService(
		creds,
		b.users,
		auth.NewTokenService(cfg.JWTSecret.Value(), cfg.TokenTTL),
		security.NewLoginGuard(ctx, log),
		auditWorker,
		log,
	)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		DB:            b.health,
		Auth:          authSvc,
		Buyers:        buyerSvc,
		History:       buyerSvc,
		Imports:       service.NewImportService(b.buyers, engine, auditWorker, log, cfg.ImportMaxRows, cfg.ImportMaxBytes),
		Exports:       service.NewExportService(b.buyers, auditWorker, log),
		Audit:         auditSvc,
		Filters:       engine,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		SchemaVersion: db.SchemaVersion(),
		MaxBodyBytes:  cfg.ImportMaxBytes + 1<<20,

		AuditQueue:         auditWorker,
		AuditRetentionDays: cfg.AuditRetentionDays,
	})

	apiSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	go func() {
		defer close(workerDone)
		auditWorker.Run(workerCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", apiSrv.Addr).Info("api server listening")
		return listen(apiSrv)
	})

	g.Go(func() error {
		log.WithField("addr", metricsSrv.Addr).Info("metrics server listening")
		return listen(metricsSrv)
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(apiSrv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	err = g.Wait()

	// Handlers are done; flush queued audit entries before the store closes.
	stopWorker()
	<-workerDone

	return err
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}

	return nil
}
