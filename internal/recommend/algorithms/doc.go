// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package algorithms provides the collaborative filtering signal for the
recommendation engine.

# User Similarity

Two palate profiles are compared on four components:

	overall = 0.40*taste + 0.30*emotional + 0.20*context + 0.10*history

Taste is the weighted cosine similarity of the profile vectors. Emotional
and context alignment are one minus the mean absolute difference of the
emotional matrices and context weights. History alignment compares the
newest evolution entries position by position. The result is symmetric in
its arguments and keyed by the ordered user pair.

A pair is retained only when both the overall similarity and the pair
confidence clear their thresholds (0.90 and 0.85 by default). Only
retained pairs are written to the similarity cache.

# Item Scoring

For each candidate the neighborhood blends a user-based score with an
item-based score:

  - User-based: the mean normalized rating from similar users, weighted by
    similarity, pair confidence, rating age and observation confidence.
    Sparse items borrow ratings from items with similar taste, then fall
    back to the cuisine average, then to the mean similarity.
  - Item-based: mean ratings of the closest same-cuisine items.

Similarity computations run concurrently, bounded by Config.BatchSize.
*/
package algorithms
