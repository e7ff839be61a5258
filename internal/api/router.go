// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/middleware"
)

// RouterConfig configures the middleware stack.
type RouterConfig struct {
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	CORSMaxAge         int      `koanf:"cors_max_age"`

	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// DefaultRouterConfig returns defaults. CORS origins are empty, so
// cross-origin browsers are refused until configured.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		CORSMaxAge:         86400,
		RateLimitRequests:  600,
		RateLimitWindow:    time.Minute,
		MaxBodyBytes:       1 << 20,
	}
}

// NewRouter builds the HTTP handler serving h.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func NewRouter(cfg RouterConfig, h *Handler, logger zerolog.Logger) http.Handler {
	if cfg.MaxBodyBytes > 0 {
		h.maxBodyBytes = cfg.MaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Instrument(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         cfg.CORSMaxAge,
	}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.RateLimitDisabled && cfg.RateLimitRequests > 0 {
			r.Use(httprate.Limit(cfg.RateLimitRequests, cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(rateLimited),
			))
		}

		r.Post("/recommendations", h.Recommend)
		r.Post("/experiences", h.RecordExperience)
		r.Post("/feedback", h.RecordFeedback)
		r.Get("/users/{userID}/profile", h.Profile)

		r.Route("/learning", func(r chi.Router) {
			r.Get("/status", h.LearningStatus)
			r.Post("/run", h.LearningRun)
			r.Get("/performance", h.LearningPerformance)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return r
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
}
