// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package reranking

import (
	"context"
	"testing"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

func spike(d taste.Dimension) taste.Vector {
	var v taste.Vector
	v[d] = 8
	return v
}

func ids(results []models.RecommendationResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ItemID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sweetHeavy() []models.RecommendationResult {
	return []models.RecommendationResult{
		{ItemID: "cake", Taste: spike(taste.Sweet), Total: 0.95, Cuisine: models.Dessert},
		{ItemID: "tart", Taste: spike(taste.Sweet), Total: 0.90, Cuisine: models.Dessert},
		{ItemID: "curry", Taste: spike(taste.Spicy), Total: 0.80, Cuisine: models.Indian},
		{ItemID: "pie", Taste: spike(taste.Sweet), Total: 0.75, Cuisine: models.Dessert},
		{ItemID: "ceviche", Taste: spike(taste.Sour), Total: 0.70, Cuisine: models.Mexican},
	}
}

func TestMMR_Name(t *testing.T) {
	t.Parallel()
	if got := NewMMR().Name(); got != "mmr" {
		t.Errorf("Name() = %q, want %q", got, "mmr")
	}
}

func TestMMR_Rerank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		diversity float64
		k         int
		want      []string
	}{
		{"no diversity keeps relevance order", 0, 3, []string{"cake", "tart", "curry"}},
		{"balanced spreads tastes", 0.5, 3, []string{"cake", "curry", "ceviche"}},
		{"k larger than input", 0.5, 50, []string{"cake", "curry", "ceviche", "tart", "pie"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ids(NewMMR().Rerank(context.Background(), sweetHeavy(), tt.k, tt.diversity))
			if !equalIDs(got, tt.want) {
				t.Errorf("Rerank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMMR_EmptyInput(t *testing.T) {
	t.Parallel()
	if got := NewMMR().Rerank(context.Background(), nil, 10, 0.5); len(got) != 0 {
		t.Errorf("Rerank(nil) = %v", got)
	}
}

func TestMMR_KeepsScores(t *testing.T) {
	t.Parallel()

	in := sweetHeavy()
	out := NewMMR().Rerank(context.Background(), in, len(in), 0.8)
	totals := make(map[string]float64, len(in))
	for _, r := range in {
		totals[r.ItemID] = r.Total
	}
	for _, r := range out {
		if totals[r.ItemID] != r.Total {
			t.Errorf("%s total changed: %f -> %f", r.ItemID, totals[r.ItemID], r.Total)
		}
	}
}
