// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package reranking

import (
	"context"
	"math"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

const (
	// cuisinePenalty is the per-repeat penalty for a cuisine at full diversity.
	cuisinePenalty = 0.5

	// pricePenalty is the per-repeat penalty for a price bucket at full diversity.
	pricePenalty = 0.25
)

// Category reranks greedily, discounting each candidate by how many
// already-selected results share its cuisine or price bucket:
//
//	adjusted = total * (1 - 0.5*d)^cuisineRepeats * (1 - 0.25*d)^priceRepeats
//
// where d is the diversity factor. An unknown price bucket never counts as
// a repeat. Totals are not modified; only the order changes.
type Category struct{}

// NewCategory creates a category diversity reranker.
func NewCategory() *Category {
	return &Category{}
}

// Name returns the reranker identifier.
func (c *Category) Name() string {
	return "category"
}

// Rerank selects up to k results in diversity-adjusted order.
func (c *Category) Rerank(ctx context.Context, results []models.RecommendationResult, k int, diversity float64) []models.RecommendationResult {
	k = boundK(k, len(results))
	if k == 0 || diversity <= 0 {
		return truncate(results, k)
	}
	diversity = math.Min(diversity, 1)

	cuisineFactor := 1 - cuisinePenalty*diversity
	priceFactor := 1 - pricePenalty*diversity

	cuisines := make(map[models.Cuisine]int)
	prices := make(map[models.PriceBucket]int)
	used := make([]bool, len(results))
	selected := make([]models.RecommendationResult, 0, k)

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}
		best, bestScore := -1, -1.0
		for i := range results {
			if used[i] {
				continue
			}
			r := &results[i]
			adjusted := r.Total * math.Pow(cuisineFactor, float64(cuisines[r.Cuisine]))
			if r.Price != models.PriceUnknown {
				adjusted *= math.Pow(priceFactor, float64(prices[r.Price]))
			}
			// Strict comparison keeps the input order on ties.
			if adjusted > bestScore {
				best, bestScore = i, adjusted
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		cuisines[results[best].Cuisine]++
		prices[results[best].Price]++
		selected = append(selected, results[best])
	}

	// A cancelled context still yields a full list in relevance order.
	for i := range results {
		if len(selected) >= k {
			break
		}
		if !used[i] {
			selected = append(selected, results[i])
		}
	}
	return selected
}

func boundK(k, n int) int {
	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k <= 0 || k > n {
		k = n
	}
	return k
}

func truncate(results []models.RecommendationResult, k int) []models.RecommendationResult {
	if len(results) > k {
		return results[:k]
	}
	return results
}

// Ensure Category implements the interface.
var _ recommend.Reranker = (*Category)(nil)
