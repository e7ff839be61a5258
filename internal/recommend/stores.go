// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// Every Get-style method returns models.ErrNotFound when the record is
// absent or expired.

// ProfileStore persists palate profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.PalateProfile, error)
	UpsertProfile(ctx context.Context, profile *models.PalateProfile) error

	// ListProfiles returns up to limit profiles in user id order.
	ListProfiles(ctx context.Context, limit int) ([]*models.PalateProfile, error)
}

// ExperienceStore persists experiences, which double as candidates.
type ExperienceStore interface {
	AppendExperience(ctx context.Context, exp *models.FoodExperience) error

	// QueryCandidates returns matching experiences, newest first.
	QueryCandidates(ctx context.Context, filter models.CandidateFilter) ([]*models.FoodExperience, error)
}

// FeedbackStore persists labeled interaction records.
type FeedbackStore interface {
	AppendFeedback(ctx context.Context, record *models.InteractionRecord) error

	// QueryFeedback returns records at or after since, newest first.
	QueryFeedback(ctx context.Context, since time.Time, limit int) ([]*models.InteractionRecord, error)

	// CountFeedbackSince counts records at or after since.
	CountFeedbackSince(ctx context.Context, since time.Time) (int, error)
}

// SimilarityCache stores user similarity records keyed by unordered pair.
type SimilarityCache interface {
	GetSimilarity(ctx context.Context, userA, userB string) (*models.UserSimilarity, error)
	UpsertSimilarity(ctx context.Context, sim *models.UserSimilarity, ttl time.Duration) error
}

// RecommendationCache stores ranked lists keyed by user and context hash.
type RecommendationCache interface {
	GetRecommendations(ctx context.Context, userID, contextHash string) ([]models.RecommendationResult, error)
	PutRecommendations(ctx context.Context, userID, contextHash string, results []models.RecommendationResult, ttl time.Duration) error
}

// PerformanceStore is the append-only model performance history.
type PerformanceStore interface {
	AppendPerformance(ctx context.Context, perf *models.ModelPerformance) error
	LatestPerformance(ctx context.Context) (*models.ModelPerformance, error)

	// ListPerformance returns up to limit entries, newest first.
	ListPerformance(ctx context.Context, limit int) ([]*models.ModelPerformance, error)
}

// SnapshotStore persists promoted scoring snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
}

// Stores groups the stores the engine reads and writes. RecommendationCache
// may be nil to disable caching regardless of configuration.
type Stores struct {
	Profiles        ProfileStore
	Experiences     ExperienceStore
	Feedback        FeedbackStore
	Recommendations RecommendationCache
}
