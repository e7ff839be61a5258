// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package reranking implements the diversity pass applied after fusion
// ranking. Rerankers only reorder and truncate; they never change scores.
package reranking

import (
	"context"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/taste"
)

// maxRerankSize limits slice allocations; k is also bounded by len(results).
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking over taste vectors.
// It selects items that are both relevant and unlike the dishes already
// chosen:
//
//	MMR = argmax[lambda * total(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where:
//   - lambda: 1 - diversity (1.0 = pure relevance, 0.0 = pure diversity)
//   - sim(i, s): weighted cosine similarity of the two taste vectors
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct{}

// NewMMR creates a new MMR reranker.
func NewMMR() *MMR {
	return &MMR{}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank applies MMR to select up to k results.
func (m *MMR) Rerank(ctx context.Context, results []models.RecommendationResult, k int, diversity float64) []models.RecommendationResult {
	k = boundK(k, len(results))
	lambda := 1 - diversity
	if lambda < 0 {
		lambda = 0
	}
	if k == 0 || lambda >= 1 {
		return truncate(results, k)
	}

	// maxSim[i] tracks the highest similarity of i to any selected item.
	maxSim := make([]float64, len(results))
	used := make([]bool, len(results))
	selected := make([]models.RecommendationResult, 0, k)

	for len(selected) < k && ctx.Err() == nil {
		best := -1
		bestMMR := 0.0
		for i := range results {
			if used[i] {
				continue
			}
			score := lambda*results[i].Total - (1-lambda)*maxSim[i]
			if best < 0 || score > bestMMR {
				best, bestMMR = i, score
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		selected = append(selected, results[best])
		for i := range results {
			if used[i] {
				continue
			}
			if s := taste.Similarity(results[i].Taste, results[best].Taste); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}

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

// Ensure MMR implements the interface.
var _ recommend.Reranker = (*MMR)(nil)
