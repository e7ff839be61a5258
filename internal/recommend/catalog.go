// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"sort"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

// BuildCatalog deduplicates experiences by item id. Metadata comes from
// the newest observation; taste is the confidence-weighted mean of all of
// them. The result is sorted by item id.
func BuildCatalog(experiences []*models.FoodExperience) []*Candidate {
	byItem := make(map[string][]*models.FoodExperience)
	for _, e := range experiences {
		if e == nil || e.ItemID == "" {
			continue
		}
		byItem[e.ItemID] = append(byItem[e.ItemID], e)
	}

	catalog := make([]*Candidate, 0, len(byItem))
	for itemID, obs := range byItem {
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Timestamp.After(obs[j].Timestamp)
		})
		catalog = append(catalog, newCandidate(itemID, obs))
	}

	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].ItemID < catalog[j].ItemID
	})
	return catalog
}

func newCandidate(itemID string, obs []*models.FoodExperience) *Candidate {
	newest := obs[0]
	c := &Candidate{
		ItemID:       itemID,
		RestaurantID: newest.RestaurantID,
		Name:         newest.Name,
		Cuisine:      newest.Cuisine,
		Price:        newest.Price,
		Context:      newest.Context,
		Ratings:      len(obs),
		Observations: obs,
	}

	vectors := make([]taste.Vector, len(obs))
	weights := make([]float64, len(obs))
	var ratingSum, weightSum float64
	for i, e := range obs {
		vectors[i] = e.Taste
		weights[i] = e.Confidence
		weightSum += e.Confidence
		ratingSum += e.Emotion.OverallRating
	}
	c.MeanRating = ratingSum / float64(len(obs))

	// Zero-confidence observations still describe the item.
	if weightSum == 0 {
		for i := range weights {
			weights[i] = 1
		}
	}
	avg, err := taste.WeightedAverage(vectors, weights)
	if err != nil {
		avg = newest.Taste
	}
	c.Taste = avg
	return c
}

// RatedBy reports whether userID has an observation of c.
func (c *Candidate) RatedBy(userID string) bool {
	for _, o := range c.Observations {
		if o.UserID == userID {
			return true
		}
	}
	return false
}
