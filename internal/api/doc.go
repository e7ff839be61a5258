// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package api exposes the recommendation engine and learning pipeline over
// HTTP using the chi router.
//
// # Endpoints
//
//	GET  /health/live                       process is up
//	GET  /health/ready                      readiness checks pass
//	POST /api/v1/recommendations            ranked recommendations
//	POST /api/v1/experiences                record an experience, returns the profile
//	POST /api/v1/feedback                   rate a served item
//	GET  /api/v1/users/{userID}/profile     profile with diversity and outliers
//	GET  /api/v1/learning/status            pipeline state
//	POST /api/v1/learning/run               forced training cycle
//	GET  /api/v1/learning/performance       evaluation history (?limit=N)
//	GET  /metrics                           Prometheus exposition
//
// Every JSON endpoint answers with models.APIResponse. Errors carry one of
// VALIDATION_ERROR, INVALID_JSON, NOT_FOUND, UNAVAILABLE or INTERNAL_ERROR.
//
// # Middleware
//
// Applied in order to every route: request id, real IP, access logging with
// metrics, panic recovery, CORS. The /api/v1 routes are additionally rate
// limited per client IP with httprate.
package api
