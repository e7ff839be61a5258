// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package taste

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

const (
	// HalfLife is the age at which an experience's contribution halves.
	HalfLife = 30 * 24 * time.Hour

	// BaseDecayWeight is the fixed weight of the base vector in TemporalDecay.
	BaseDecayWeight = 0.3

	// MinDecayWeight drops experiences whose decayed weight falls below it.
	MinDecayWeight = 0.01

	// OutlierZScore is the |z| above which a dimension is an outlier.
	OutlierZScore = 2.0

	// MinOutlierPopulation is the smallest population OutlierDetection accepts.
	MinOutlierPopulation = 3

	// diversityCeiling is the empirical coefficient of variation mapped to 1.
	diversityCeiling = 0.5
)

// Similarity returns the weighted cosine similarity of a and b in [0,1].
// It returns 0 when either vector has zero weighted magnitude.
func Similarity(a, b Vector) float64 {
	var dot, magA, magB float64
	for i := range a {
		w := Weights[i]
		dot += w * a[i] * b[i]
		magA += w * a[i] * a[i]
		magB += w * b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// Distance returns the weighted Euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += Weights[i] * d * d
	}
	return math.Sqrt(sum)
}

// MaxDistance is the largest possible Distance between two valid vectors.
func MaxDistance() float64 {
	var sum float64
	for _, w := range Weights {
		sum += w * MaxValue * MaxValue
	}
	return math.Sqrt(sum)
}

// WeightedAverage blends vectors by weight. The slices must have equal
// length and weights must be non-negative. When the weights sum to zero
// the neutral vector is returned.
func WeightedAverage(vectors []Vector, weights []float64) (Vector, error) {
	if len(vectors) != len(weights) {
		return Vector{}, fmt.Errorf("%w: %d vectors but %d weights", ErrInvalidArgument, len(vectors), len(weights))
	}

	var total float64
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return Vector{}, fmt.Errorf("%w: weight %d must be non-negative, got %f", ErrInvalidArgument, i, w)
		}
		total += w
	}
	if total == 0 {
		return Neutral(), nil
	}

	var out Vector
	for i, v := range vectors {
		for d := range v {
			out[d] += v[d] * weights[i]
		}
	}
	for d := range out {
		out[d] /= total
	}
	return out.Clamp(), nil
}

// TimedVector is one past observation fed to TemporalDecay.
type TimedVector struct {
	Vector          Vector
	Timestamp       time.Time
	EmotionalWeight float64
}

// DecayFactor returns exp(-ln2 * age / HalfLife). Future timestamps count
// as age zero.
func DecayFactor(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(HalfLife))
}

// TemporalDecay blends base with past experiences, weighting each by its
// half-life decay times its emotional weight. The base vector always
// participates with BaseDecayWeight.
func TemporalDecay(base Vector, experiences []TimedVector, now time.Time) Vector {
	vectors := make([]Vector, 0, len(experiences)+1)
	weights := make([]float64, 0, len(experiences)+1)
	vectors = append(vectors, base)
	weights = append(weights, BaseDecayWeight)

	for _, e := range experiences {
		w := DecayFactor(now.Sub(e.Timestamp)) * e.EmotionalWeight
		if w < MinDecayWeight {
			continue
		}
		vectors = append(vectors, e.Vector)
		weights = append(weights, w)
	}

	out, err := WeightedAverage(vectors, weights)
	if err != nil {
		// Lengths always match and weights are non-negative here.
		return base
	}
	return out
}

// GradientParams scales a single GradientUpdate step.
type GradientParams struct {
	LearningRate     float64
	EmotionalWeight  float64
	ContextualWeight float64
}

// GradientUpdate moves current toward observed when the response was
// satisfying and away from it when it was not. Every dimension of the
// result is clamped into bounds.
func GradientUpdate(current, observed Vector, response EmotionVector, intensity float64, p GradientParams) Vector {
	g := SatisfactionGradient(response, intensity)
	scale := p.LearningRate * g * p.EmotionalWeight * p.ContextualWeight

	var out Vector
	for d := range current {
		delta := scale * (observed[d] - current[d]) * Weights[d]
		out[d] = clamp(current[d] + delta)
	}
	return out
}

// Outlier describes how far one dimension of a user's vector sits from the
// population.
type Outlier struct {
	Dimension Dimension `json:"dimension"`
	ZScore    float64   `json:"z_score"`
	IsOutlier bool      `json:"is_outlier"`
}

// OutlierDetection computes a per-dimension z-score of user against the
// population. It returns nil when the population is smaller than
// MinOutlierPopulation.
func OutlierDetection(user Vector, population []Vector) []Outlier {
	if len(population) < MinOutlierPopulation {
		return nil
	}

	out := make([]Outlier, NumDimensions)
	column := make(stats.Float64Data, len(population))
	for d := 0; d < NumDimensions; d++ {
		for i, v := range population {
			column[i] = v[d]
		}
		mean, _ := stats.Mean(column)
		sd, _ := stats.StandardDeviationPopulation(column)

		var z float64
		if sd > 0 {
			z = (user[d] - mean) / sd
		}
		out[d] = Outlier{
			Dimension: Dimension(d),
			ZScore:    z,
			IsOutlier: math.Abs(z) > OutlierZScore,
		}
	}
	return out
}

// DiversityScore returns the coefficient of variation across dimensions,
// normalized so that 0.5 maps to 1.
func DiversityScore(v Vector) float64 {
	data := stats.Float64Data(v[:])
	mean, err := stats.Mean(data)
	if err != nil || mean == 0 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return 0
	}
	return clamp01(sd / mean / diversityCeiling)
}

// Novelty returns the weight-normalized mean absolute difference between
// a and b in [0,1].
func Novelty(a, b Vector) float64 {
	var diff, total float64
	for i := range a {
		diff += Weights[i] * math.Abs(a[i]-b[i])
		total += Weights[i]
	}
	return clamp01(diff / (total * (MaxValue - MinValue)))
}
