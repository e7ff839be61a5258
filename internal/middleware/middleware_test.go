// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/metrics"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"upstream id kept", "req-123", true},
		{"control characters rejected", "bad\nid", false},
		{"overlong id rejected", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var fromLogging, fromChi string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromLogging = logging.RequestIDFromContext(r.Context())
				fromChi = chimiddleware.GetReqID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != fromLogging || got != fromChi {
				t.Fatalf("ids disagree: header=%q logging=%q chi=%q", got, fromLogging, fromChi)
			}
			if (got == tt.incoming) != tt.keep {
				t.Errorf("id = %q, keep upstream = %v", got, tt.keep)
			}
		})
	}
}

func TestInstrument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Instrument(logging.NewTestLogger(&buf)))
	r.Get("/items/{itemID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/items/{itemID}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/sushi-42", nil))
	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/items/{itemID}", "418"))
	if after-before != 1 {
		t.Errorf("request counter moved by %f, want 1", after-before)
	}

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("access log not JSON: %v (%q)", err, buf.String())
	}
	if line["route"] != "/items/{itemID}" || line["path"] != "/items/sushi-42" {
		t.Errorf("route/path = %v/%v", line["route"], line["path"])
	}
	if line["status"] != float64(418) || line["bytes"] != float64(2) || line["level"] != "warn" {
		t.Errorf("access log = %v", line)
	}
	if line["request_id"] == "" || line["request_id"] == nil {
		t.Error("access log missing request_id")
	}
}

func TestInstrument_UnmatchedRoute(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(Instrument(logging.NewTestLogger(&bytes.Buffer{})))
	r.Get("/known", func(http.ResponseWriter, *http.Request) {})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	if after-before != 1 {
		t.Errorf("unmatched counter moved by %f, want 1", after-before)
	}
}
