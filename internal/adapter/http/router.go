package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BookHandler      *handler.BookHandler
	AccountHandler   *handler.AccountHandler
	EntryHandler     *handler.EntryHandler
	ReportHandler    *handler.ReportHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recover(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and telemetry endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Books and membership
		r.Route("/books", func(r chi.Router) {
			r.Post("/", cfg.BookHandler.Create)
			r.Get("/{id}", cfg.BookHandler.Get)
			r.Post("/{bookID}/members", cfg.BookHandler.AddMember)
			r.Get("/{bookID}/members", cfg.BookHandler.ListMembers)
		})

		// Ledgers: chart of accounts, entry log, reports
		r.Route("/ledgers/{id}", func(r chi.Router) {
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/", cfg.AccountHandler.Groups)
				r.Get("/{accountID}", cfg.AccountHandler.Get)
				r.Patch("/{accountID}", cfg.AccountHandler.Patch)
				r.Post("/{accountID}/archive", cfg.AccountHandler.Archive)
			})

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", cfg.EntryHandler.Create)
				r.Get("/", cfg.EntryHandler.List)
				r.Get("/{entryID}", cfg.EntryHandler.Get)
				r.Put("/{entryID}", cfg.EntryHandler.Modify)
				r.Delete("/{entryID}", cfg.EntryHandler.Delete)
				r.Get("/{entryID}/revisions", cfg.EntryHandler.Revisions)
			})

			r.Post("/transfers", cfg.EntryHandler.CreateTransfer)

			r.Get("/overview", cfg.ReportHandler.Overview)
			r.Get("/summary", cfg.ReportHandler.Summary)
			r.Get("/balance", cfg.ReportHandler.Balance)
			r.Post("/rebuild", cfg.ReportHandler.Rebuild)
			r.Get("/verify", cfg.ReportHandler.Verify)
		})
	})

	return r
}
