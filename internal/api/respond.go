// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/validation"
)

// Error codes.
const (
	CodeInvalidJSON = "INVALID_JSON"
	CodeNotFound    = "NOT_FOUND"
	CodeUnavailable = "UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, status int, data any, start time.Time, cached bool) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message, Details: details},
	})
}

// respondFailure maps a domain error to its HTTP status. Internal details
// are logged, not returned.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, validation.CodeValidationError, err.Error(), nil)
	case errors.Is(err, recommend.ErrMissingProfile), errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "Resource not found", nil)
	case errors.Is(err, breaker.ErrOpen):
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "Storage temporarily unavailable", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// decodeJSON reads a bounded body into dst and validates it. On failure it
// writes the error response and returns false.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondError(w, http.StatusRequestEntityTooLarge, CodeInvalidJSON,
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil)
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, CodeInvalidJSON, "Request body is empty", nil)
		default:
			respondError(w, http.StatusBadRequest, CodeInvalidJSON, "Malformed JSON: "+err.Error(), nil)
		}
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// intQuery returns the integer query parameter key, def when absent, and
// an error when it is not an integer in [lo, hi].
func intQuery(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}
