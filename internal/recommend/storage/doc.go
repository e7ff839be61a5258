// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package storage persists everything the recommendation engine and the
learning pipeline read and write.

# Backends

Badger is the durable store. A single database holds every record type
under its own key prefix:

	profile:{user}                 palate profiles, iterated in user order
	exp:{inverted-ns}:{id}         experiences, newest first
	fb:{inverted-ns}:{id}          interaction records, newest first
	perf:{inverted-ns}:{id}        model performance history, newest first
	snap:{inverted-version}        scoring snapshots, highest version first
	sim:{userA}:{userB}            similarity pairs (entry TTL)
	rec:{user}:{context-hash}      cached recommendation lists (entry TTL)

Inverted keys encode math.MaxInt64 minus the timestamp or version as a
fixed-width decimal, so a forward prefix scan yields newest first.

Values are JSON encoded with goccy/go-json.

The similarity and recommendation caches can also live in process memory
(MemoryCache) or in Redis (RedisCache). Both honor per-entry TTL.

# Fault Isolation

Guarded wraps any set of stores with a circuit breaker per store so that a
failing backend fails fast instead of stalling request paths.
*/
package storage
