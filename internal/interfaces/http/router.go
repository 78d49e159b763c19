package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/handlers"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.  Nil entries are skipped.
type RouterConfig struct {
	// Handlers
	SessionHandler *handlers.SessionHandler
	ViewHandler    *handlers.ViewHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	AuthMiddleware      *middleware.AuthMiddleware
	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   *middleware.LoggingMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// Health and metrics endpoints are public; everything under /api/v1 passes
// through auth and then the rate limiter, so limits can key on the caller.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}

	// --- Public endpoints (no auth) ---
	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
		}
		if cfg.MetricsCollector != nil {
			pub.Handle("/metrics", cfg.MetricsCollector.Handler())
		}
	})

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}
		if cfg.RateLimitMiddleware != nil {
			api.Use(cfg.RateLimitMiddleware.Handler)
		}

		registerProjectRoutes(api, cfg.SessionHandler, cfg.ViewHandler)
		registerSessionRoutes(api, cfg.SessionHandler)
	})

	return r
}

// registerProjectRoutes mounts the project-scoped endpoints: opening a
// session and the saved-view registry.
func registerProjectRoutes(r chi.Router, sh *handlers.SessionHandler, vh *handlers.ViewHandler) {
	if sh == nil && vh == nil {
		return
	}
	r.Route("/projects/{projectID}", func(pr chi.Router) {
		if sh != nil {
			pr.Post("/sessions", sh.Open)
		}
		if vh == nil {
			return
		}
		pr.Route("/views", func(vr chi.Router) {
			vr.Get("/", vh.List)
			vr.Post("/", vh.Create)

			vr.Route("/{viewID}", func(item chi.Router) {
				item.Get("/", vh.Get)
				item.Patch("/", vh.Rename)
				item.Delete("/", vh.Delete)
			})
		})
	})
}

// registerSessionRoutes mounts the per-session endpoints under /sessions.
func registerSessionRoutes(r chi.Router, h *handlers.SessionHandler) {
	if h == nil {
		return
	}
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.Get)
		sr.Delete("/", h.Close)
		sr.Get("/charts", h.Charts)
		sr.Post("/events", h.Apply)
		sr.Post("/reload", h.Reload)
		sr.Post("/views", h.SaveView)
		sr.Post("/restore/{viewID}", h.Restore)
		sr.Post("/export/{metric}", h.Export)
	})
}

//Personal.AI order the ending
