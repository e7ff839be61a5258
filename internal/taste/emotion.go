// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package taste

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Emotion identifies one emotional response axis.
type Emotion int

const (
	Satisfaction Emotion = iota
	Excitement
	Comfort
	Surprise
	Nostalgia

	// NumEmotions is the number of emotional response axes.
	NumEmotions = 5
)

var emotionNames = [NumEmotions]string{"satisfaction", "excitement", "comfort", "surprise", "nostalgia"}

// String returns the axis wire name.
func (e Emotion) String() string {
	if e < 0 || int(e) >= NumEmotions {
		return "unknown"
	}
	return emotionNames[e]
}

// ParseEmotion maps a wire name back to an Emotion.
func ParseEmotion(name string) (Emotion, error) {
	for i, n := range emotionNames {
		if n == name {
			return Emotion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown emotion axis %q", ErrInvalidArgument, name)
}

// EmotionWeights is the fixed importance of each axis. The weights sum to 1.
var EmotionWeights = [NumEmotions]float64{
	Satisfaction: 0.35,
	Excitement:   0.25,
	Comfort:      0.20,
	Surprise:     0.15,
	Nostalgia:    0.05,
}

// EmotionVector holds one score in [0,10] per emotional axis.
type EmotionVector [NumEmotions]float64

// NeutralEmotion returns the all-midpoint emotion vector.
func NeutralEmotion() EmotionVector {
	var e EmotionVector
	for i := range e {
		e[i] = NeutralValue
	}
	return e
}

// Validate reports whether every axis is a finite value in [0,10].
func (e EmotionVector) Validate() error {
	for i, x := range e {
		if math.IsNaN(x) || x < MinValue || x > MaxValue {
			return fmt.Errorf("%w: emotion %s must be in [0,10], got %f", ErrInvalidArgument, Emotion(i), x)
		}
	}
	return nil
}

// Weighted returns the importance-weighted mean response on the [0,10] scale.
func (e EmotionVector) Weighted() float64 {
	var s float64
	for i, x := range e {
		s += x * EmotionWeights[i]
	}
	return s
}

// Consistency returns 1 minus the population variance across the axes,
// normalized by the largest variance possible on the [0,10] scale. Identical
// scores give 1; scores split between 0 and 10 approach 0.
func (e EmotionVector) Consistency() float64 {
	variance, err := stats.VariancePopulation(stats.Float64Data(e[:]))
	if err != nil {
		return 1
	}
	const maxVariance = (MaxValue - MinValue) * (MaxValue - MinValue) / 4
	return clamp01(1 - variance/maxVariance)
}

// SatisfactionGradient converts an emotional response into a signed pull
// factor in roughly [-1,1]. Positive values draw a profile toward the
// experienced vector, negative values push it away.
func SatisfactionGradient(response EmotionVector, intensity float64) float64 {
	return (response.Weighted() - NeutralValue) / NeutralValue * (intensity / MaxValue)
}
