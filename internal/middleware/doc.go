// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package middleware provides chi-compatible HTTP middleware for request
tracking and instrumentation.

  - RequestID: accepts or generates X-Request-ID and carries it in the
    request context for logging.Ctx and chi's GetReqID
  - Instrument: records Prometheus request metrics by route pattern and
    writes one structured access log line per request

The API router stacks them with chi's RealIP and Recoverer, go-chi/cors and
go-chi/httprate:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Instrument(logger))
	r.Use(chimiddleware.Recoverer)
*/
package middleware
