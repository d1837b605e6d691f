package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/channelgw/internal/middleware"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// RouterConfig carries everything NewRouter needs to assemble the
// admin HTTP surface.
type RouterConfig struct {
	JWTSecret          string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	Health             *HealthHandler
	Sessions           *SessionHandler
	Idempotency        *IdempotencyHandler
	Stream             *StreamHandler
}

// NewRouter assembles the admin HTTP surface: health/ready/metrics are
// open, everything under /api/v1 requires a bearer JWT and is rate
// limited. The returned chi.Router also satisfies http.Handler, and
// callers may Mount additional routes (e.g. a webhook adapter's
// inbound path) onto it before starting the server.
func NewRouter(cfg RouterConfig, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", cfg.Sessions.List)
			r.Get("/{id}", cfg.Sessions.Get)
		})

		r.Route("/idempotency", func(r chi.Router) {
			r.Get("/{eventId}", cfg.Idempotency.Get)
		})

		r.Get("/stream", cfg.Stream.Stream)
	})

	return r
}
