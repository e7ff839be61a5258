// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package recommend ranks food items for a user by fusing five signals.

# Architecture

A request flows one way through the engine:

	profile + candidates -> taste / emotional / context / collaborative / novelty
	                     -> fused total (active Snapshot)
	                     -> threshold by maturity -> sort -> diversity rerank -> cache

Feedback flows the other way: RecordFeedback labels the served prediction
with the user's rating and appends it to the feedback store, where the
learning pipeline picks it up and may Publish a new Snapshot.

# Snapshots

Scoring parameters live in an immutable, versioned Snapshot held behind an
atomic pointer. Each request loads the pointer once, so a promotion during
a request never mixes parameters from two versions.

# Degradation

Store failures never fail a recommendation request. A missing or
unreadable profile takes the cold-start path, an unreadable neighborhood
scores collaborative as 0.5, and an unreadable candidate pool returns an
empty list. Only malformed input returns ErrInvalidArgument.

# Caching

Ranked lists are cached per (user, context hash) for a TTL. Profile
updates do not invalidate the cache; a user may see a list computed from
their previous profile until it expires.

# Subpackages

  - algorithms: user and item similarity for the collaborative signal
  - reranking: category and MMR diversity passes
  - storage: Badger, Redis and in-memory store implementations
*/
package recommend
