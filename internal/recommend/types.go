// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

// Request is a recommendation request.
type Request struct {
	// RequestID is echoed in the response metadata. Generated when empty.
	RequestID string `json:"request_id,omitempty"`

	// UserID is the user to recommend for.
	UserID string `json:"user_id" validate:"required,max=128"`

	// Context is the situation the user is deciding in.
	Context models.Context `json:"context"`

	// Preferences tune this request.
	Preferences models.Preferences `json:"preferences"`
}

// Validate rejects malformed requests.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (r Request) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}
	if err := r.Context.Validate(); err != nil {
		return err
	}
	if r.Preferences.K < 0 {
		return fmt.Errorf("%w: k must be non-negative, got %d", ErrInvalidArgument, r.Preferences.K)
	}
	if d := r.Preferences.Diversity; d != nil && (*d < 0 || *d > 1) {
		return fmt.Errorf("%w: diversity must be in [0,1], got %f", ErrInvalidArgument, *d)
	}
	if !r.Preferences.MaxPrice.Valid() {
		return fmt.Errorf("%w: unknown max_price", ErrInvalidArgument)
	}
	for _, c := range r.Preferences.Cuisines {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown cuisine", ErrInvalidArgument)
		}
	}
	return nil
}

// Response is the ranked list plus serving metadata.
type Response struct {
	Results  []models.RecommendationResult `json:"results"`
	Metadata ResponseMetadata              `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID       string    `json:"request_id"`
	UserID          string    `json:"user_id"`
	ContextHash     string    `json:"context_hash"`
	CacheHit        bool      `json:"cache_hit"`
	ColdStart       bool      `json:"cold_start"`
	SnapshotVersion int64     `json:"snapshot_version"`
	Candidates      int       `json:"candidates"`
	Reranker        string    `json:"reranker,omitempty"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// Feedback is a user's outcome rating for an item they were served.
type Feedback struct {
	UserID string  `json:"user_id" validate:"required,max=128"`
	ItemID string  `json:"item_id" validate:"required,max=128"`
	Rating float64 `json:"rating" validate:"min=0,max=10"`
}

// Candidate is one deduplicated item built from every stored experience
// of it.
type Candidate struct {
	ItemID       string
	RestaurantID string
	Name         string
	Cuisine      models.Cuisine
	Price        models.PriceBucket

	// Taste is the confidence-weighted mean of observed taste vectors.
	Taste taste.Vector

	// Context is the context of the most recent observation.
	Context models.Context

	// Ratings is the number of observations, MeanRating their mean
	// overall rating on the 0-10 scale.
	Ratings    int
	MeanRating float64

	// Observations are the underlying experiences, newest first.
	Observations []*models.FoodExperience
}

// Popularity maps rating volume and mean rating onto [0,1].
func (c *Candidate) Popularity() float64 {
	volume := float64(c.Ratings) / 10
	if volume > 1 {
		volume = 1
	}
	return volume * c.MeanRating / taste.MaxValue
}

// Reranker reorders a sorted result list and truncates it to k.
type Reranker interface {
	// Name returns the reranker identifier used by diversity.strategy.
	Name() string

	// Rerank returns at most k results. diversity in [0,1] sets the
	// strength of the pass; 0 keeps the input order.
	Rerank(ctx context.Context, results []models.RecommendationResult, k int, diversity float64) []models.RecommendationResult
}

// Neighborhood is the collaborative view of one user for one request.
type Neighborhood interface {
	// Similar returns the retained similar users, best first.
	Similar() []models.UserSimilarity

	// ItemScore returns the collaborative score for c in [0,1].
	ItemScore(c *Candidate) float64
}

// Collaborative builds neighborhoods.
type Collaborative interface {
	Neighborhood(ctx context.Context, profile *models.PalateProfile, catalog []*Candidate) (Neighborhood, error)
}

// Publisher announces recorded experiences and feedback.
type Publisher interface {
	PublishExperience(ctx context.Context, exp *models.FoodExperience, profile *models.PalateProfile) error
	PublishFeedback(ctx context.Context, record *models.InteractionRecord) error
}

// neutralNeighborhood is used when no collaborative data is available.
type neutralNeighborhood struct{}

func (neutralNeighborhood) Similar() []models.UserSimilarity { return nil }
func (neutralNeighborhood) ItemScore(*Candidate) float64     { return 0.5 }
