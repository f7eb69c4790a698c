package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/expensesplit/internal/adapter/http/handler"
	"github.com/iho/expensesplit/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	HealthHandler      *handler.HealthHandler
	Logger             zerolog.Logger
	// Optional
	HTTPMetrics    *middleware.HTTPMetrics
	RateLimiter    *middleware.RateLimiter
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions/{year}/{month}", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.GetMonth)
			r.Put("/selections", cfg.TransactionHandler.AssignSelection)
			r.Post("/refetch", cfg.TransactionHandler.Refetch)
		})

		r.Get("/selection-error", cfg.TransactionHandler.GetSelectionError)
		r.Delete("/selection-error", cfg.TransactionHandler.ClearSelectionError)

		r.Get("/upstream/health", cfg.HealthHandler.Upstream)
	})

	return r
}
