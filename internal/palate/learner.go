// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package palate

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

// Config controls how profiles learn from experiences.
type Config struct {
	// BaseRates is the base learning rate for each maturity stage.
	// It must decrease from novice to expert.
	BaseRates map[models.Maturity]float64

	// ContextImportance weights each context field when deriving the
	// contextual weight of an experience.
	ContextImportance map[models.ContextField]float64

	// MatrixDecay is the EMA retention of the emotional matrix.
	MatrixDecay float64

	// ContextWeightRate is the EMA rate for a profile's context weights.
	ContextWeightRate float64

	// HistoryLimit caps the stored evolution history. Zero keeps everything.
	HistoryLimit int

	// InitialMatrixValue seeds every cell of a new emotional matrix.
	InitialMatrixValue float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseRates: map[models.Maturity]float64{
			models.Novice:      0.8,
			models.Developing:  0.5,
			models.Established: 0.25,
			models.Expert:      0.1,
		},
		ContextImportance: map[models.ContextField]float64{
			models.FieldTimeOfDay: 0.20,
			models.FieldSocial:    0.25,
			models.FieldMood:      0.25,
			models.FieldWeather:   0.10,
			models.FieldLocation:  0.20,
		},
		MatrixDecay:        0.95,
		ContextWeightRate:  0.1,
		HistoryLimit:       200,
		InitialMatrixValue: 0.5,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	prev := math.Inf(1)
	for m := models.Novice; m <= models.Expert; m++ {
		r, ok := c.BaseRates[m]
		if !ok || r <= 0 || r > 1 {
			return fmt.Errorf("palate.base_rates.%s must be in (0,1], got %f", m, r)
		}
		if r > prev {
			return fmt.Errorf("palate.base_rates must decrease with maturity, %s is %f", m, r)
		}
		prev = r
	}
	var total float64
	for _, f := range models.ContextFields {
		w := c.ContextImportance[f]
		if w < 0 {
			return fmt.Errorf("palate.context_importance.%s must be non-negative, got %f", f, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("palate.context_importance must have a positive sum")
	}
	if c.MatrixDecay < 0 || c.MatrixDecay > 1 {
		return fmt.Errorf("palate.matrix_decay must be in [0,1], got %f", c.MatrixDecay)
	}
	if c.ContextWeightRate < 0 || c.ContextWeightRate > 1 {
		return fmt.Errorf("palate.context_weight_rate must be in [0,1], got %f", c.ContextWeightRate)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("palate.history_limit must be non-negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Magnitude thresholds for classifying an evolution step.
const (
	suddenMagnitude     = 5.0
	gradualMagnitude    = 2.0
	contextualMagnitude = 1.0

	// maxConfidenceAlpha caps the confidence EMA rate.
	maxConfidenceAlpha = 0.1
)

// Learner applies experiences to profiles. It holds no state beyond its
// configuration and is safe for concurrent use.
type Learner struct {
	cfg Config
}

// NewLearner creates a Learner.
func NewLearner(cfg Config) *Learner {
	return &Learner{cfg: cfg}
}

// Apply folds one experience into profile and returns the updated copy.
// A nil profile creates a new one seeded from the experience. The input
// profile is never modified.
func (l *Learner) Apply(profile *models.PalateProfile, exp *models.FoodExperience, now time.Time) (*models.PalateProfile, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if profile != nil && profile.UserID != exp.UserID {
		return nil, fmt.Errorf("%w: experience for %q applied to profile of %q", taste.ErrInvalidArgument, exp.UserID, profile.UserID)
	}

	if profile == nil {
		return l.create(exp, now), nil
	}

	next := profile.Clone()
	if next.ContextWeights == nil {
		next.ContextWeights = make(map[string]float64)
	}
	count := next.ExperienceCount + 1

	updated := taste.GradientUpdate(next.Vector, exp.Taste, exp.Emotion.Scores, exp.Emotion.Intensity, taste.GradientParams{
		LearningRate:     l.LearningRate(next.Maturity, next.Confidence),
		EmotionalWeight:  EmotionalWeight(exp.Emotion),
		ContextualWeight: l.ContextualWeight(exp.Context),
	})

	entry := evolutionEntry(next.Vector, updated, exp.Confidence, now)
	next.Vector = updated
	next.History = append(next.History, entry)
	if l.cfg.HistoryLimit > 0 && len(next.History) > l.cfg.HistoryLimit {
		next.History = next.History[len(next.History)-l.cfg.HistoryLimit:]
	}

	l.updateMatrix(&next.Matrix, exp)
	l.updateContextWeights(next.ContextWeights, exp)

	alpha := math.Min(maxConfidenceAlpha, 1/float64(count))
	next.Confidence = clamp(next.Confidence*(1-alpha)+exp.Confidence*100*alpha, 0, 100)

	next.ExperienceCount = count
	next.Maturity = models.MaturityFor(count)
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

func (l *Learner) create(exp *models.FoodExperience, now time.Time) *models.PalateProfile {
	p := &models.PalateProfile{
		UserID:          exp.UserID,
		Vector:          exp.Taste,
		Matrix:          models.NewEmotionalMatrix(l.cfg.InitialMatrixValue),
		ContextWeights:  make(map[string]float64),
		Confidence:      clamp(exp.Confidence*100, 0, 100),
		Maturity:        models.Novice,
		ExperienceCount: 1,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	l.updateContextWeights(p.ContextWeights, exp)
	return p
}

// LearningRate scales the maturity base rate up by as much as 50% for
// low-confidence profiles.
func (l *Learner) LearningRate(m models.Maturity, confidence float64) float64 {
	base := l.cfg.BaseRates[m]
	return base * (1 + (1-clamp(confidence, 0, 100)/100)*0.5)
}

// EmotionalWeight is intensity scaled by how consistent the five emotional
// axes are with each other.
func EmotionalWeight(r models.EmotionalResponse) float64 {
	return clamp(r.Intensity/taste.MaxValue*r.Scores.Consistency(), 0, 1)
}

// ContextualWeight maps the share of configured context importance that
// the experience actually recorded onto [0.3,1].
func (l *Learner) ContextualWeight(c models.Context) float64 {
	const floor = 0.3
	values := c.Values()
	var present, total float64
	for _, f := range models.ContextFields {
		w := l.cfg.ContextImportance[f]
		total += w
		if values[f] != "" {
			present += w
		}
	}
	if total == 0 {
		return floor
	}
	return clamp(floor+(1-floor)*present/total, floor, 1)
}

// updateMatrix moves each cell toward the co-activation of the taste
// dimension and the emotional axis in this experience.
func (l *Learner) updateMatrix(m *models.EmotionalMatrix, exp *models.FoodExperience) {
	keep := l.cfg.MatrixDecay
	for d := 0; d < taste.NumDimensions; d++ {
		t := exp.Taste[d] / taste.MaxValue
		for a := 0; a < taste.NumEmotions; a++ {
			corr := t * exp.Emotion.Scores[a] / taste.MaxValue
			m[d][a] = clamp(keep*m[d][a]+(1-keep)*corr, 0, 1)
		}
	}
}

// updateContextWeights moves each recorded context key toward how much
// the user enjoyed the meal.
func (l *Learner) updateContextWeights(weights map[string]float64, exp *models.FoodExperience) {
	target := exp.Emotion.OverallRating / taste.MaxValue
	rate := l.cfg.ContextWeightRate
	for _, k := range exp.Context.Keys() {
		old, ok := weights[k]
		if !ok {
			old = 0.5
		}
		weights[k] = clamp(old*(1-rate)+target*rate, 0, 1)
	}
}

func evolutionEntry(before, after taste.Vector, confidence float64, now time.Time) models.EvolutionEntry {
	delta := after.Sub(before)
	var sq float64
	for _, d := range delta {
		sq += d * d
	}
	mag := math.Sqrt(sq)
	return models.EvolutionEntry{
		Timestamp:  now,
		Delta:      delta,
		Magnitude:  mag,
		Type:       ClassifyEvolution(mag),
		Confidence: confidence,
	}
}

// ClassifyEvolution names a change by its magnitude.
func ClassifyEvolution(magnitude float64) models.EvolutionType {
	switch {
	case magnitude > suddenMagnitude:
		return models.EvolutionSudden
	case magnitude > gradualMagnitude:
		return models.EvolutionGradual
	case magnitude > contextualMagnitude:
		return models.EvolutionContextual
	default:
		return models.EvolutionGradual
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
