// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"fmt"
	"time"
)

// Config contains configuration for the learning pipeline.
type Config struct {
	// Enabled turns the scheduled loop on. Manual runs work regardless.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Interval between scheduled assessments.
	Interval time.Duration `json:"interval" koanf:"interval"`

	// TrainOnStartup runs one cycle as soon as the scheduler starts.
	TrainOnStartup bool `json:"train_on_startup" koanf:"train_on_startup"`

	// CycleTimeout bounds one full cycle.
	CycleTimeout time.Duration `json:"cycle_timeout" koanf:"cycle_timeout"`

	Assessment AssessmentConfig `json:"assessment" koanf:"assessment"`
	Dataset    DatasetConfig    `json:"dataset" koanf:"dataset"`
	Training   TrainingConfig   `json:"training" koanf:"training"`
	Evaluation EvaluationConfig `json:"evaluation" koanf:"evaluation"`
}

// AssessmentConfig decides when retraining is needed.
type AssessmentConfig struct {
	// TargetAccuracy is also the bar a candidate must clear to be promoted.
	TargetAccuracy float64 `json:"target_accuracy" koanf:"target_accuracy"`

	// AccuracyDropThreshold triggers retraining when the latest accuracy
	// is more than this far below TargetAccuracy.
	AccuracyDropThreshold float64 `json:"accuracy_drop_threshold" koanf:"accuracy_drop_threshold"`

	// FreshnessWindow triggers retraining when the latest evaluation is older.
	FreshnessWindow time.Duration `json:"freshness_window" koanf:"freshness_window"`

	// NewInteractionThreshold triggers retraining when more labeled
	// interactions than this have arrived since the latest evaluation.
	NewInteractionThreshold int `json:"new_interaction_threshold" koanf:"new_interaction_threshold"`
}

// DatasetConfig bounds collection and the split.
type DatasetConfig struct {
	Window             time.Duration `json:"window" koanf:"window"`
	MaxRecords         int           `json:"max_records" koanf:"max_records"`
	MinRecords         int           `json:"min_records" koanf:"min_records"`
	ValidationFraction float64       `json:"validation_fraction" koanf:"validation_fraction"`
	TestFraction       float64       `json:"test_fraction" koanf:"test_fraction"`

	// Seed makes shuffling and mini-batching reproducible.
	Seed uint64 `json:"seed" koanf:"seed"`
}

// TrainingConfig tunes the optimizer.
type TrainingConfig struct {
	MaxEpochs    int     `json:"max_epochs" koanf:"max_epochs"`
	Patience     int     `json:"patience" koanf:"patience"`
	BatchSize    int     `json:"batch_size" koanf:"batch_size"`
	LearningRate float64 `json:"learning_rate" koanf:"learning_rate"`
	DecayFactor  float64 `json:"decay_factor" koanf:"decay_factor"`
	DecayEvery   int     `json:"decay_every" koanf:"decay_every"`

	// Tolerance is the band within which a training-time prediction
	// counts as accurate.
	Tolerance float64 `json:"tolerance" koanf:"tolerance"`
}

// EvaluationConfig tunes the held-out evaluation.
type EvaluationConfig struct {
	// Tolerance is the accuracy band on the test set. It is stricter than
	// the training band.
	Tolerance float64 `json:"tolerance" koanf:"tolerance"`

	// HighRatingThreshold separates positives for precision and recall.
	HighRatingThreshold float64 `json:"high_rating_threshold" koanf:"high_rating_threshold"`

	SimilarityTolerance   float64 `json:"similarity_tolerance" koanf:"similarity_tolerance"`
	SimilaritySamplePairs int     `json:"similarity_sample_pairs" koanf:"similarity_sample_pairs"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Interval:       24 * time.Hour,
		TrainOnStartup: false,
		CycleTimeout:   30 * time.Minute,
		Assessment: AssessmentConfig{
			TargetAccuracy:          0.75,
			AccuracyDropThreshold:   0.05,
			FreshnessWindow:         30 * 24 * time.Hour,
			NewInteractionThreshold: 1000,
		},
		Dataset: DatasetConfig{
			Window:             90 * 24 * time.Hour,
			MaxRecords:         10000,
			MinRecords:         100,
			ValidationFraction: 0.20,
			TestFraction:       0.15,
			Seed:               42,
		},
		Training: TrainingConfig{
			MaxEpochs:    200,
			Patience:     10,
			BatchSize:    32,
			LearningRate: 0.05,
			DecayFactor:  0.95,
			DecayEvery:   20,
			Tolerance:    0.15,
		},
		Evaluation: EvaluationConfig{
			Tolerance:             0.10,
			HighRatingThreshold:   0.7,
			SimilarityTolerance:   0.15,
			SimilaritySamplePairs: 50,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("learning.interval must be positive, got %s", c.Interval)
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("learning.cycle_timeout must be positive, got %s", c.CycleTimeout)
	}

	a := c.Assessment
	if a.TargetAccuracy <= 0 || a.TargetAccuracy > 1 {
		return fmt.Errorf("learning.assessment.target_accuracy must be in (0,1], got %f", a.TargetAccuracy)
	}
	if a.AccuracyDropThreshold < 0 || a.FreshnessWindow <= 0 || a.NewInteractionThreshold <= 0 {
		return fmt.Errorf("learning.assessment thresholds must be positive")
	}

	d := c.Dataset
	if d.MinRecords < 3 || d.MaxRecords < d.MinRecords {
		return fmt.Errorf("learning.dataset.max_records (%d) must be >= min_records (%d) >= 3", d.MaxRecords, d.MinRecords)
	}
	if d.Window <= 0 {
		return fmt.Errorf("learning.dataset.window must be positive, got %s", d.Window)
	}
	if d.ValidationFraction <= 0 || d.TestFraction <= 0 || d.ValidationFraction+d.TestFraction >= 1 {
		return fmt.Errorf("learning.dataset validation_fraction (%f) and test_fraction (%f) must be positive and leave a training share",
			d.ValidationFraction, d.TestFraction)
	}

	t := c.Training
	if t.MaxEpochs <= 0 || t.Patience <= 0 || t.BatchSize <= 0 || t.DecayEvery <= 0 {
		return fmt.Errorf("learning.training epoch, patience, batch and decay settings must be positive")
	}
	if t.LearningRate <= 0 {
		return fmt.Errorf("learning.training.learning_rate must be positive, got %f", t.LearningRate)
	}
	if t.DecayFactor <= 0 || t.DecayFactor > 1 {
		return fmt.Errorf("learning.training.decay_factor must be in (0,1], got %f", t.DecayFactor)
	}
	if t.Tolerance <= 0 || t.Tolerance > 1 {
		return fmt.Errorf("learning.training.tolerance must be in (0,1], got %f", t.Tolerance)
	}

	e := c.Evaluation
	if e.Tolerance <= 0 || e.Tolerance > 1 || e.SimilarityTolerance <= 0 || e.SimilarityTolerance > 1 {
		return fmt.Errorf("learning.evaluation tolerances must be in (0,1]")
	}
	if e.HighRatingThreshold <= 0 || e.HighRatingThreshold >= 1 {
		return fmt.Errorf("learning.evaluation.high_rating_threshold must be in (0,1), got %f", e.HighRatingThreshold)
	}
	if e.SimilaritySamplePairs < 0 {
		return fmt.Errorf("learning.evaluation.similarity_sample_pairs must be non-negative, got %d", e.SimilaritySamplePairs)
	}
	return nil
}
