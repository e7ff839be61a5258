// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package models defines the data types shared by the profile manager,
// collaborative filtering, the ranker, the learning pipeline, the stores,
// and the HTTP API.
//
// Categorical context (time of day, social setting, mood, weather, location
// type) and item categories (cuisine, price bucket) are closed sets encoded
// as small integers with text marshaling. Unknown names are rejected with
// ErrUnknownEnum rather than carried as free-form strings.
package models
