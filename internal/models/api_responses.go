// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint returns.
//
// Status is "success" or "error". On error, Error carries a machine-readable
// code such as VALIDATION_ERROR or NOT_FOUND.
//
//	{
//	  "status": "success",
//	  "data": {"results": [...]},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 12, "cached": true}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and cache information for a response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the structured error body.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
