// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/palate/internal/logging"
)

// RequestIDHeader is read from requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client-supplied ids.
const maxRequestIDLength = 128

// RequestID keeps a well-formed upstream X-Request-ID or generates one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = logging.GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.ContextWithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts printable ASCII without spaces, so ids are safe
// to log verbatim.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}
