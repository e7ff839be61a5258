// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// Snapshot is an immutable set of scoring parameters. Never modify a
// Snapshot after it has been published; build a new one with a higher
// version instead.
type Snapshot struct {
	Version int64         `json:"version"`
	Weights FusionWeights `json:"weights"`

	// Scale and Bias calibrate the fused sum onto observed ratings.
	Scale float64 `json:"scale"`
	Bias  float64 `json:"bias"`

	TrainedAt     time.Time `json:"trained_at"`
	PerformanceID string    `json:"performance_id,omitempty"`
}

// DefaultSnapshot returns version 0 with the given weights and identity
// calibration.
func DefaultSnapshot(weights FusionWeights) *Snapshot {
	return &Snapshot{
		Version: 0,
		Weights: weights,
		Scale:   1,
		Bias:    0,
	}
}

// Predict fuses scores into a total in [0,1].
func (s *Snapshot) Predict(scores models.SubScores) float64 {
	return clamp01(s.Scale*s.Fuse(scores) + s.Bias)
}

// Fuse returns the uncalibrated weighted sum of scores.
func (s *Snapshot) Fuse(scores models.SubScores) float64 {
	w := s.Weights.Values()
	v := scores.Values()
	var sum float64
	for i := range v {
		sum += w[i] * v[i]
	}
	return sum
}

// Validate checks the snapshot can be served.
func (s *Snapshot) Validate() error {
	if err := s.Weights.Validate(); err != nil {
		return err
	}
	if math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) || s.Scale <= 0 {
		return fmt.Errorf("snapshot.scale must be positive, got %f", s.Scale)
	}
	if math.IsNaN(s.Bias) || math.Abs(s.Bias) > 1 {
		return fmt.Errorf("snapshot.bias must be in [-1,1], got %f", s.Bias)
	}
	return nil
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
