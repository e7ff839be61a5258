// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/metrics"
)

// unmatchedRoute labels requests no route matched, keeping metric
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Instrument records request metrics and an access log line. Metrics are
// labeled by chi route pattern, never by raw path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Instrument(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := routePattern(r)
				metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), duration)

				var event *zerolog.Event
				switch {
				case status >= 500:
					event = logger.Error()
				case status >= 400:
					event = logger.Warn()
				default:
					event = logger.Info()
				}
				event.
					Str("request_id", logging.RequestIDFromContext(r.Context())).
					Str("method", r.Method).
					Str("route", route).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Str("remote_ip", r.RemoteAddr).
					Dur("duration", duration).
					Msg("request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
