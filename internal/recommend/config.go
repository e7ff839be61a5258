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

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights is the initial fusion weighting. The learning pipeline may
	// promote replacements at runtime through snapshots.
	Weights FusionWeights `json:"weights" koanf:"weights"`

	// Diversity controls the post-ranking diversity pass.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// Thresholds drop weak candidates before ranking, by profile maturity.
	Thresholds ThresholdConfig `json:"thresholds" koanf:"thresholds"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains recommendation cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// ColdStartConfidenceCap bounds the confidence of results served to
	// users without a profile.
	ColdStartConfidenceCap float64 `json:"cold_start_confidence_cap" koanf:"cold_start_confidence_cap"`

	// AlgorithmVersion is stamped on every result.
	AlgorithmVersion string `json:"algorithm_version" koanf:"algorithm_version"`
}

// FusionWeights weights the five sub-scores in the fused total.
type FusionWeights struct {
	Taste         float64 `json:"taste" koanf:"taste"`
	Emotional     float64 `json:"emotional" koanf:"emotional"`
	Context       float64 `json:"context" koanf:"context"`
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
	Novelty       float64 `json:"novelty" koanf:"novelty"`
}

// DefaultFusionWeights returns 0.35/0.25/0.20/0.15/0.05.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Taste: 0.35, Emotional: 0.25, Context: 0.20, Collaborative: 0.15, Novelty: 0.05}
}

// Values returns the weights in sub-score order.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FusionWeights) Values() [models.NumSignals]float64 {
	return [models.NumSignals]float64{w.Taste, w.Emotional, w.Context, w.Collaborative, w.Novelty}
}

// FusionWeightsFrom builds weights from sub-score order.
func FusionWeightsFrom(v [models.NumSignals]float64) FusionWeights {
	return FusionWeights{Taste: v[0], Emotional: v[1], Context: v[2], Collaborative: v[3], Novelty: v[4]}
}

// Normalize returns a copy that sums to 1. All-zero weights become equal.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FusionWeights) Normalize() FusionWeights {
	v := w.Values()
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		const equal = 1.0 / models.NumSignals
		return FusionWeights{equal, equal, equal, equal, equal}
	}
	for i := range v {
		v[i] /= sum
	}
	return FusionWeightsFrom(v)
}

// Validate checks every weight is non-negative and the set sums to 1.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FusionWeights) Validate() error {
	var sum float64
	for _, x := range w.Values() {
		if math.IsNaN(x) || x < 0 {
			return fmt.Errorf("recommend.weights must be non-negative, got %f", x)
		}
		sum += x
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("recommend.weights must sum to 1, got %f", sum)
	}
	return nil
}

// DiversityConfig contains parameters for diversity reranking.
type DiversityConfig struct {
	// Strategy selects the reranker: "category" or "mmr".
	Strategy string `json:"strategy" koanf:"strategy"`

	// Factor is the default diversity strength in [0,1]. Zero disables
	// the pass. Requests may override it.
	Factor float64 `json:"factor" koanf:"factor"`
}

// ThresholdConfig holds the minimum fused total a candidate needs to be
// ranked, per maturity stage.
type ThresholdConfig struct {
	Novice      float64 `json:"novice" koanf:"novice"`
	Developing  float64 `json:"developing" koanf:"developing"`
	Established float64 `json:"established" koanf:"established"`
	Expert      float64 `json:"expert" koanf:"expert"`
}

// For returns the threshold for maturity m.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (t ThresholdConfig) For(m models.Maturity) float64 {
	switch m {
	case models.Expert:
		return t.Expert
	case models.Established:
		return t.Established
	case models.Developing:
		return t.Developing
	default:
		return t.Novice
	}
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the default number of recommendations to return.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK is the largest allowed K.
	MaxK int `json:"max_k" koanf:"max_k"`

	// MaxCandidates bounds the candidate query.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// MaxPeers bounds how many other profiles are compared per request.
	MaxPeers int `json:"max_peers" koanf:"max_peers"`

	// RequestTimeout bounds a whole recommendation request.
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout"`
}

// CacheConfig contains recommendation cache parameters.
type CacheConfig struct {
	// Enabled controls whether ranked lists are cached.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is how long a ranked list stays valid. Expiry is the only
	// invalidation.
	TTL time.Duration `json:"ttl" koanf:"ttl"`

	// ServedTTL is how long the scores behind a served item are kept to
	// label later feedback.
	ServedTTL time.Duration `json:"served_ttl" koanf:"served_ttl"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: DefaultFusionWeights(),
		Diversity: DiversityConfig{
			Strategy: "category",
			Factor:   0.3,
		},
		Thresholds: ThresholdConfig{
			Novice:      0.30,
			Developing:  0.35,
			Established: 0.40,
			Expert:      0.50,
		},
		Limits: LimitsConfig{
			DefaultK:       10,
			MaxK:           100,
			MaxCandidates:  1000,
			MaxPeers:       200,
			RequestTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			TTL:       24 * time.Hour,
			ServedTTL: 7 * 24 * time.Hour,
		},
		ColdStartConfidenceCap: 0.6,
		AlgorithmVersion:       "fusion-v1",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	switch c.Diversity.Strategy {
	case "category", "mmr":
	default:
		return fmt.Errorf("recommend.diversity.strategy must be category or mmr, got %q", c.Diversity.Strategy)
	}
	if c.Diversity.Factor < 0 || c.Diversity.Factor > 1 {
		return fmt.Errorf("recommend.diversity.factor must be in [0,1], got %f", c.Diversity.Factor)
	}
	for _, th := range []float64{c.Thresholds.Novice, c.Thresholds.Developing, c.Thresholds.Established, c.Thresholds.Expert} {
		if th < 0 || th >= 1 {
			return fmt.Errorf("recommend.thresholds must be in [0,1), got %f", th)
		}
	}
	if c.Limits.DefaultK <= 0 || c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("recommend.limits.default_k must be in [1,max_k], got %d (max %d)", c.Limits.DefaultK, c.Limits.MaxK)
	}
	if c.Limits.MaxCandidates <= 0 {
		return fmt.Errorf("recommend.limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.MaxPeers < 0 {
		return fmt.Errorf("recommend.limits.max_peers must be non-negative, got %d", c.Limits.MaxPeers)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("recommend.cache.ttl must be positive when caching is enabled, got %s", c.Cache.TTL)
	}
	if c.ColdStartConfidenceCap <= 0 || c.ColdStartConfidenceCap > 1 {
		return fmt.Errorf("recommend.cold_start_confidence_cap must be in (0,1], got %f", c.ColdStartConfidenceCap)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
