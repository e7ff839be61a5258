// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"sort"
	"strings"

	"github.com/tomtom215/palate/internal/cache"
	"github.com/tomtom215/palate/internal/models"
)

// hashInput is everything that changes a ranked list for a fixed user.
type hashInput struct {
	Context        string   `json:"c"`
	K              int      `json:"k"`
	IncludeNovelty bool     `json:"n"`
	Diversity      float64  `json:"d"`
	Cuisines       []string `json:"cu,omitempty"`
	MaxPrice       string   `json:"p,omitempty"`
	ExcludeTried   bool     `json:"x"`
}

// ContextHash returns a stable key for a request context and resolved
// preferences. Cuisine order does not affect the hash.
func ContextHash(c models.Context, k int, diversity float64, prefs *models.Preferences) string {
	cuisines := make([]string, len(prefs.Cuisines))
	for i, cu := range prefs.Cuisines {
		cuisines[i] = cu.String()
	}
	sort.Strings(cuisines)

	key := cache.GenerateKey("ctx", hashInput{
		Context:        c.Canonical(),
		K:              k,
		IncludeNovelty: prefs.IncludeNovelty,
		Diversity:      diversity,
		Cuisines:       cuisines,
		MaxPrice:       prefs.MaxPrice.String(),
		ExcludeTried:   prefs.ExcludeTried,
	})
	return strings.TrimPrefix(key, "ctx:")
}

// served remembers what was shown to a user so later feedback can be
// labeled with the prediction it answers.
type served struct {
	Total   float64
	Scores  models.SubScores
	Version int64
}

func servedKey(userID, itemID string) string {
	return userID + "\x00" + itemID
}
