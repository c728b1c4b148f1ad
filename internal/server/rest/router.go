package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

type RouterOptions struct {
	AllowedOrigins []string
	Redis          *redis.Client
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter mounts the REST API under /api together with /healthz and
// /metrics.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limit := func(scope string) func(next http.Handler) http.Handler {
		return RateLimiter(opts.Redis, opts.RateLimit, opts.RateWindow, scope, h.logger)
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/verifications/prepare", h.Prepare)
		r.With(limit("finalize")).Post("/verifications/finalize", h.Finalize)
		r.Get("/verifications/verified", h.ListVerified)
		r.With(h.RequireNpub).Get("/verifications/pending", h.ListPending)
		r.Get("/verifications/{id}", h.GetVerification)
		r.Get("/verification/{id}", h.GetVerificationWithNote)
		r.With(limit("notes")).Get("/notes/{id}", h.GetNote)
		r.With(limit("verify")).Post("/verify", h.Verify)
		r.Post("/auth/session", h.CreateSession)
	})

	return r
}
