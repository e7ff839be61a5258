// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"strconv"

	"github.com/tomtom215/palate/internal/models"
)

// pairKey identifies an unordered user pair. The first id is length
// prefixed so ids containing ':' cannot collide.
func pairKey(userA, userB string) string {
	a, b := models.OrderedPair(userA, userB)
	return strconv.Itoa(len(a)) + ":" + a + ":" + b
}

// listKey identifies a cached ranked list for a user and context hash.
func listKey(userID, contextHash string) string {
	return strconv.Itoa(len(userID)) + ":" + userID + ":" + contextHash
}
