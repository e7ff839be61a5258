// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package cache provides a thread-safe in-memory cache with per-entry TTL.

It backs two short-lived stores in the recommendation path:
  - the in-memory recommendation cache, keyed by user and context hash
  - the served-prediction memory the engine uses to label feedback with
    the scores that were shown to the user

Expiry is lazy on Get, plus a periodic sweep started by New and stopped
by Close. Expired entries are never returned.

# Usage

	c := cache.New[[]models.RecommendationResult](24 * time.Hour)
	defer c.Close()

	c.Set(key, results)
	if results, ok := c.Get(key); ok {
	    return results
	}

GenerateKey derives a compact, stable key from a method name and any
JSON-serializable parameters.
*/
package cache
