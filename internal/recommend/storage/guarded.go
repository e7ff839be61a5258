// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"time"

	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// Backend is the full set of stores a single backend provides.
type Backend interface {
	recommend.ProfileStore
	recommend.ExperienceStore
	recommend.FeedbackStore
	recommend.PerformanceStore
	recommend.SnapshotStore
}

// Guarded routes every call to a Backend through a circuit breaker. When
// the breaker is open calls fail fast with breaker.ErrOpen.
type Guarded struct {
	next Backend
	b    *breaker.Boundary
}

// NewGuarded wraps next with boundary b. A nil b passes calls through.
func NewGuarded(next Backend, b *breaker.Boundary) *Guarded {
	return &Guarded{next: next, b: b}
}

func (g *Guarded) GetProfile(ctx context.Context, userID string) (*models.PalateProfile, error) {
	return breaker.Do(ctx, g.b, "get_profile", func(ctx context.Context) (*models.PalateProfile, error) {
		return g.next.GetProfile(ctx, userID)
	})
}

func (g *Guarded) UpsertProfile(ctx context.Context, profile *models.PalateProfile) error {
	return breaker.Run(ctx, g.b, "upsert_profile", func(ctx context.Context) error {
		return g.next.UpsertProfile(ctx, profile)
	})
}

func (g *Guarded) ListProfiles(ctx context.Context, limit int) ([]*models.PalateProfile, error) {
	return breaker.Do(ctx, g.b, "list_profiles", func(ctx context.Context) ([]*models.PalateProfile, error) {
		return g.next.ListProfiles(ctx, limit)
	})
}

func (g *Guarded) AppendExperience(ctx context.Context, exp *models.FoodExperience) error {
	return breaker.Run(ctx, g.b, "append_experience", func(ctx context.Context) error {
		return g.next.AppendExperience(ctx, exp)
	})
}

func (g *Guarded) QueryCandidates(ctx context.Context, filter models.CandidateFilter) ([]*models.FoodExperience, error) {
	return breaker.Do(ctx, g.b, "query_candidates", func(ctx context.Context) ([]*models.FoodExperience, error) {
		return g.next.QueryCandidates(ctx, filter)
	})
}

func (g *Guarded) AppendFeedback(ctx context.Context, record *models.InteractionRecord) error {
	return breaker.Run(ctx, g.b, "append_feedback", func(ctx context.Context) error {
		return g.next.AppendFeedback(ctx, record)
	})
}

func (g *Guarded) QueryFeedback(ctx context.Context, since time.Time, limit int) ([]*models.InteractionRecord, error) {
	return breaker.Do(ctx, g.b, "query_feedback", func(ctx context.Context) ([]*models.InteractionRecord, error) {
		return g.next.QueryFeedback(ctx, since, limit)
	})
}

func (g *Guarded) CountFeedbackSince(ctx context.Context, since time.Time) (int, error) {
	return breaker.Do(ctx, g.b, "count_feedback", func(ctx context.Context) (int, error) {
		return g.next.CountFeedbackSince(ctx, since)
	})
}

func (g *Guarded) AppendPerformance(ctx context.Context, perf *models.ModelPerformance) error {
	return breaker.Run(ctx, g.b, "append_performance", func(ctx context.Context) error {
		return g.next.AppendPerformance(ctx, perf)
	})
}

func (g *Guarded) LatestPerformance(ctx context.Context) (*models.ModelPerformance, error) {
	return breaker.Do(ctx, g.b, "latest_performance", func(ctx context.Context) (*models.ModelPerformance, error) {
		return g.next.LatestPerformance(ctx)
	})
}

func (g *Guarded) ListPerformance(ctx context.Context, limit int) ([]*models.ModelPerformance, error) {
	return breaker.Do(ctx, g.b, "list_performance", func(ctx context.Context) ([]*models.ModelPerformance, error) {
		return g.next.ListPerformance(ctx, limit)
	})
}

func (g *Guarded) SaveSnapshot(ctx context.Context, snap *recommend.Snapshot) error {
	return breaker.Run(ctx, g.b, "save_snapshot", func(ctx context.Context) error {
		return g.next.SaveSnapshot(ctx, snap)
	})
}

func (g *Guarded) LatestSnapshot(ctx context.Context) (*recommend.Snapshot, error) {
	return breaker.Do(ctx, g.b, "latest_snapshot", func(ctx context.Context) (*recommend.Snapshot, error) {
		return g.next.LatestSnapshot(ctx)
	})
}

// Cache is the pair of caches a cache backend provides.
type Cache interface {
	recommend.SimilarityCache
	recommend.RecommendationCache
}

// GuardedCache routes cache calls through their own circuit breaker, so a
// failing cache never trips the primary store's breaker.
type GuardedCache struct {
	next Cache
	b    *breaker.Boundary
}

// NewGuardedCache wraps next with boundary b. A nil b passes calls through.
func NewGuardedCache(next Cache, b *breaker.Boundary) *GuardedCache {
	return &GuardedCache{next: next, b: b}
}

func (g *GuardedCache) GetSimilarity(ctx context.Context, userA, userB string) (*models.UserSimilarity, error) {
	return breaker.Do(ctx, g.b, "get_similarity", func(ctx context.Context) (*models.UserSimilarity, error) {
		return g.next.GetSimilarity(ctx, userA, userB)
	})
}

func (g *GuardedCache) UpsertSimilarity(ctx context.Context, sim *models.UserSimilarity, ttl time.Duration) error {
	return breaker.Run(ctx, g.b, "upsert_similarity", func(ctx context.Context) error {
		return g.next.UpsertSimilarity(ctx, sim, ttl)
	})
}

func (g *GuardedCache) GetRecommendations(ctx context.Context, userID, contextHash string) ([]models.RecommendationResult, error) {
	return breaker.Do(ctx, g.b, "get_recommendations", func(ctx context.Context) ([]models.RecommendationResult, error) {
		return g.next.GetRecommendations(ctx, userID, contextHash)
	})
}

func (g *GuardedCache) PutRecommendations(ctx context.Context, userID, contextHash string, results []models.RecommendationResult, ttl time.Duration) error {
	return breaker.Run(ctx, g.b, "put_recommendations", func(ctx context.Context) error {
		return g.next.PutRecommendations(ctx, userID, contextHash, results, ttl)
	})
}

var (
	_ Backend = (*Badger)(nil)
	_ Backend = (*Guarded)(nil)
	_ Cache   = (*Badger)(nil)
	_ Cache   = (*MemoryCache)(nil)
	_ Cache   = (*RedisCache)(nil)
	_ Cache   = (*GuardedCache)(nil)
)
