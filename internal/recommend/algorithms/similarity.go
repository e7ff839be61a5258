// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"math"
	"time"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

// Component weights of the overall user similarity.
const (
	tasteComponentWeight     = 0.40
	emotionalComponentWeight = 0.30
	contextComponentWeight   = 0.20
	historyComponentWeight   = 0.10

	// confidenceBoost multiplies confidence for pairs that clear the
	// similarity threshold.
	confidenceBoost = 1.2

	// neutralAlignment is used when one side has nothing to compare.
	neutralAlignment = 0.5
)

// ComputeSimilarity compares two profiles. The result does not depend on
// argument order; UserA is always the lexically smaller id.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func ComputeSimilarity(a, b *models.PalateProfile, cfg Config, now time.Time) models.UserSimilarity {
	if b.UserID < a.UserID {
		a, b = b, a
	}

	sim := models.UserSimilarity{
		UserA:              a.UserID,
		UserB:              b.UserID,
		TasteAlignment:     taste.Similarity(a.Vector, b.Vector),
		EmotionalAlignment: MatrixSimilarity(&a.Matrix, &b.Matrix),
		ContextAlignment:   ContextWeightSimilarity(a.ContextWeights, b.ContextWeights),
		HistoryAlignment:   HistorySimilarity(a.RecentHistory(cfg.HistoryDepth), b.RecentHistory(cfg.HistoryDepth)),
		AlgorithmVersion:   cfg.AlgorithmVersion,
		ComputedAt:         now,
		ExpiresAt:          now.Add(cfg.SimilarityTTL),
	}
	sim.Overall = clamp01(tasteComponentWeight*sim.TasteAlignment +
		emotionalComponentWeight*sim.EmotionalAlignment +
		contextComponentWeight*sim.ContextAlignment +
		historyComponentWeight*sim.HistoryAlignment)

	sim.Confidence = pairConfidence(a, b)
	if sim.Overall >= cfg.SimilarityThreshold {
		sim.Confidence = clamp01(sim.Confidence * confidenceBoost)
	}
	return sim
}

// Retained reports whether a pair clears both thresholds. Pairs that do
// not are discarded, never cached.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func Retained(sim *models.UserSimilarity, cfg Config) bool {
	return sim.Overall >= cfg.SimilarityThreshold && sim.Confidence >= cfg.ConfidenceThreshold
}

// MatrixSimilarity is the mean of 1-|a-b| over every matrix cell.
func MatrixSimilarity(a, b *models.EmotionalMatrix) float64 {
	var sum float64
	for d := range a {
		for e := range a[d] {
			sum += 1 - math.Abs(a[d][e]-b[d][e])
		}
	}
	return clamp01(sum / float64(taste.NumDimensions*taste.NumEmotions))
}

// ContextWeightSimilarity is the mean of 1-|a-b| over the union of keys,
// with 0.5 standing in for a missing key.
func ContextWeightSimilarity(a, b map[string]float64) float64 {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return neutralAlignment
	}

	var sum float64
	for k := range keys {
		wa, ok := a[k]
		if !ok {
			wa = neutralAlignment
		}
		wb, ok := b[k]
		if !ok {
			wb = neutralAlignment
		}
		sum += 1 - math.Abs(wa-wb)
	}
	return clamp01(sum / float64(len(keys)))
}

// HistorySimilarity pairs the newest entries of each history by position.
// A pair of the same evolution type scores by how close the magnitudes
// are; a type mismatch scores 0.
func HistorySimilarity(a, b []models.EvolutionEntry) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return neutralAlignment
	}

	var sum float64
	for i := 0; i < n; i++ {
		if a[i].Type != b[i].Type {
			continue
		}
		scale := math.Max(1, math.Max(a[i].Magnitude, b[i].Magnitude))
		sum += 1 - math.Abs(a[i].Magnitude-b[i].Magnitude)/scale
	}
	return clamp01(sum / float64(n))
}

// pairConfidence blends maturity, how evenly matched the experience
// counts are, and the stored profile confidences.
func pairConfidence(a, b *models.PalateProfile) float64 {
	maturity := (a.Maturity.Factor() + b.Maturity.Factor()) / 2

	overlap := 0.0
	lo, hi := min(a.ExperienceCount, b.ExperienceCount), max(a.ExperienceCount, b.ExperienceCount)
	if hi > 0 {
		overlap = float64(lo) / float64(hi)
	}

	stored := (a.Confidence + b.Confidence) / 200
	return clamp01((maturity + overlap + clamp01(stored)) / 3)
}

// TimeDecay weights a rating by its age: full weight for a week, 0.9 for
// a month, 0.7 for a quarter, then halving every further quarter down to
// a floor of 0.1.
func TimeDecay(age time.Duration) float64 {
	const (
		week    = 7 * 24 * time.Hour
		month   = 30 * 24 * time.Hour
		quarter = 90 * 24 * time.Hour
		floor   = 0.1
	)
	switch {
	case age <= week:
		return 1.0
	case age <= month:
		return 0.9
	case age <= quarter:
		return 0.7
	}
	w := 0.7 * math.Exp(-math.Ln2*float64(age-quarter)/float64(quarter))
	return math.Max(floor, w)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
