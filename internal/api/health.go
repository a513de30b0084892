// Package api provides the HTTP handlers of the lead-intake service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Check states reported by /health and /ready.
const (
	checkOK            = "ok"
	checkError         = "error"
	checkUnknown       = "unknown"
	checkNotConfigured = "not_configured"
	checkFull          = "full"
)

const (
	livenessTimeout  = 2 * time.Second
	readinessTimeout = 3 * time.Second
)

// HealthConfig wires the probes a HealthHandler reports. Nil probes are
// reported as not configured.
type HealthConfig struct {
	DB            HealthChecker
	AuditQueue    QueueProbe
	Version       string
	SchemaVersion int64
}

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	cfg     HealthConfig
	log     *logrus.Logger
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg HealthConfig, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, log: log, started: time.Now()}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type readinessResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int64             `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health. It always answers 200; the database
// field is informational ("connected", "disconnected" or "not_configured").
func (h *HealthHandler) Liveness(c *gin.Context) {
	db := checkNotConfigured

	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), livenessTimeout)
		defer cancel()

		db = "connected"
		if err := h.cfg.DB.HealthCheck(ctx); err != nil {
			db = "disconnected"
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       h.cfg.Version,
		Database:      db,
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// Readiness handles GET /api/v1/ready. The instance is ready when the
// database answers and the buyer schema is migrated. A full audit queue is
// reported but does not fail readiness.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database":    h.databaseCheck(c.Request.Context()),
		"audit_queue": h.auditQueueCheck(),
	}

	checks["schema"] = checkUnknown
	if checks["database"] == checkOK {
		checks["schema"] = h.schemaCheck(c.Request.Context())
	}

	status, code := "ready", http.StatusOK
	if checks["database"] != checkOK || checks["schema"] != checkOK {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(code, readinessResponse{Status: status, SchemaVersion: h.cfg.SchemaVersion, Checks: checks})
}

func (h *HealthHandler) databaseCheck(ctx context.Context) string {
	if h.cfg.DB == nil {
		return checkNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.cfg.DB.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database unreachable")
		return checkError
	}

	return checkOK
}

func (h *HealthHandler) schemaCheck(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.cfg.DB.CheckSchema(ctx); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		return checkError
	}

	return checkOK
}

func (h *HealthHandler) auditQueueCheck() string {
	if h.cfg.AuditQueue == nil {
		return checkNotConfigured
	}

	if depth, capacity := h.cfg.AuditQueue.Backlog(); depth >= capacity {
		h.log.WithField("capacity", capacity).Warn("readiness: audit queue full")
		return checkFull
	}

	return checkOK
}
