// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"time"

	"github.com/tomtom215/palate/internal/taste"
)

// SubScores are the five per-signal scores fused into a total, each in [0,1].
type SubScores struct {
	Taste         float64 `json:"taste"`
	Emotional     float64 `json:"emotional"`
	Context       float64 `json:"context"`
	Collaborative float64 `json:"collaborative"`
	Novelty       float64 `json:"novelty"`
}

// NumSignals is the number of fused signals.
const NumSignals = 5

// Values returns the scores in fusion order.
func (s SubScores) Values() [NumSignals]float64 {
	return [NumSignals]float64{s.Taste, s.Emotional, s.Context, s.Collaborative, s.Novelty}
}

// NeutralScores returns 0.5 for every signal.
func NeutralScores() SubScores {
	return SubScores{Taste: 0.5, Emotional: 0.5, Context: 0.5, Collaborative: 0.5, Novelty: 0.5}
}

// RecommendationResult is one scored candidate for one user.
type RecommendationResult struct {
	UserID           string       `json:"user_id"`
	ItemID           string       `json:"item_id"`
	RestaurantID     string       `json:"restaurant_id,omitempty"`
	Name             string       `json:"name,omitempty"`
	Cuisine          Cuisine      `json:"cuisine"`
	Price            PriceBucket  `json:"price,omitempty"`
	Taste            taste.Vector `json:"taste"`
	Scores           SubScores    `json:"scores"`
	Total            float64      `json:"total"`
	Confidence       float64      `json:"confidence"`
	Reasons          []string     `json:"reasons"`
	AlgorithmVersion string       `json:"algorithm_version"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// Preferences tune a single recommendation request.
type Preferences struct {
	K              int         `json:"k,omitempty" validate:"omitempty,min=1,max=100"`
	IncludeNovelty bool        `json:"include_novelty,omitempty"`
	Diversity      *float64    `json:"diversity,omitempty" validate:"omitempty,min=0,max=1"`
	Cuisines       []Cuisine   `json:"cuisines,omitempty" validate:"max=20,dive,known"`
	MaxPrice       PriceBucket `json:"max_price,omitempty" validate:"known"`
	ExcludeTried   bool        `json:"exclude_tried,omitempty"`
}

// UserSimilarity is an order-independent similarity record for two users.
type UserSimilarity struct {
	UserA              string    `json:"user_a"`
	UserB              string    `json:"user_b"`
	Overall            float64   `json:"overall"`
	TasteAlignment     float64   `json:"taste_alignment"`
	EmotionalAlignment float64   `json:"emotional_alignment"`
	ContextAlignment   float64   `json:"context_alignment"`
	HistoryAlignment   float64   `json:"history_alignment"`
	Confidence         float64   `json:"confidence"`
	AlgorithmVersion   string    `json:"algorithm_version"`
	ComputedAt         time.Time `json:"computed_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// OrderedPair returns the two ids sorted so that (a,b) and (b,a) share a key.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Other returns the id of the user paired with userID.
func (s *UserSimilarity) Other(userID string) string {
	if s.UserA == userID {
		return s.UserB
	}
	return s.UserA
}

// Expired reports whether the record is past its expiry at now.
func (s *UserSimilarity) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ModelPerformance is one evaluation of the scoring parameters.
type ModelPerformance struct {
	ID                 string    `json:"id"`
	SnapshotVersion    int64     `json:"snapshot_version"`
	Accuracy           float64   `json:"accuracy"`
	MAE                float64   `json:"mae"`
	RMSE               float64   `json:"rmse"`
	Precision          float64   `json:"precision"`
	Recall             float64   `json:"recall"`
	F1                 float64   `json:"f1"`
	SimilarityAccuracy float64   `json:"similarity_accuracy"`
	SimilarityPairs    int       `json:"similarity_pairs"`
	DatasetSize        int       `json:"dataset_size"`
	TrainSize          int       `json:"train_size"`
	ValidationSize     int       `json:"validation_size"`
	TestSize           int       `json:"test_size"`
	Epochs             int       `json:"epochs"`
	Promoted           bool      `json:"promoted"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}
