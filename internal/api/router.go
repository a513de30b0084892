package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	DB            HealthChecker
	Auth          AuthService
	Buyers        BuyerService
	History       HistoryService
	Imports       ImportService
	Exports       ExportService
	Audit         AuditService
	Filters       FilterValidator
	CORSOrigins   []string
	Version       string
	SchemaVersion int64
	MaxBodyBytes  int64

	AuditQueue         QueueProbe
	AuditRetentionDays int
}

const defaultMaxBodySize = 10 << 20 // 10 MB

// Per-IP request limits. Sign-in is additionally throttled per email by the
// brute-force guard.
var (
	apiLimit   = middleware.Limit{Rate: 100, Burst: 200}
	loginLimit = middleware.Limit{Rate: 0.2, Burst: 10}
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.AccessLog(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBody))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, "api", apiLimit).Handler())
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(HealthConfig{
		DB:            deps.DB,
		AuditQueue:    deps.AuditQueue,
		Version:       deps.Version,
		SchemaVersion: deps.SchemaVersion,
	}, log)
	auth := NewAuthHandler(deps.Auth, log)
	buyers := NewBuyerHandler(deps.Buyers, deps.History, deps.Filters, log)
	transfer := NewTransferHandler(deps.Imports, deps.Exports, deps.Filters, log)
	audit := NewAuditHandler(deps.Audit, log, deps.AuditRetentionDays)

	// Health, readiness and sign-in are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)
	api.POST("/auth/login", middleware.NewRateLimiter(ctx, "login", loginLimit).Handler(), auth.Login)

	// All other API routes require a bearer token.
	api.Use(middleware.AuthMiddleware(deps.Auth, log))

	api.GET("/auth/me", auth.Me)

	// Buyers. Static segments are registered before :id.
	api.GET("/buyers", buyers.List)
	api.POST("/buyers", buyers.Create)
	api.POST("/buyers/import", transfer.Import)
	api.GET("/buyers/import/template", transfer.Template)
	api.GET("/buyers/export", transfer.Export)
	api.GET("/buyers/:id", buyers.Get)
	api.PUT("/buyers/:id", buyers.Update)
	api.DELETE("/buyers/:id", buyers.Delete)
	api.GET("/buyers/:id/history", buyers.History)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
