// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"time"

	"github.com/tomtom215/palate/internal/cache"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// MemoryCache holds similarity pairs and ranked lists in process memory.
// Entries do not survive a restart.
type MemoryCache struct {
	ttl  time.Duration
	sims *cache.Cache[models.UserSimilarity]
	recs *cache.Cache[[]models.RecommendationResult]
}

// NewMemoryCache creates a memory cache. defaultTTL applies to entries
// stored with a non-positive ttl.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  defaultTTL,
		sims: cache.New[models.UserSimilarity](defaultTTL),
		recs: cache.New[[]models.RecommendationResult](defaultTTL),
	}
}

// Close stops the background sweepers.
func (m *MemoryCache) Close() {
	m.sims.Close()
	m.recs.Close()
}

// Ping always succeeds.
func (m *MemoryCache) Ping(context.Context) error { return nil }

// HitRates returns the hit rate percentage of each cache.
func (m *MemoryCache) HitRates() map[string]float64 {
	return map[string]float64{
		"similarity":      m.sims.HitRate(),
		"recommendations": m.recs.HitRate(),
	}
}

func (m *MemoryCache) expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return m.ttl
	}
	return ttl
}

// GetSimilarity returns a cached pair.
func (m *MemoryCache) GetSimilarity(_ context.Context, userA, userB string) (*models.UserSimilarity, error) {
	sim, ok := m.sims.Get(pairKey(userA, userB))
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sim, nil
}

// UpsertSimilarity caches a pair for ttl.
func (m *MemoryCache) UpsertSimilarity(_ context.Context, sim *models.UserSimilarity, ttl time.Duration) error {
	m.sims.SetWithTTL(pairKey(sim.UserA, sim.UserB), *sim, m.expiry(ttl))
	return nil
}

// GetRecommendations returns a copy of a cached list.
func (m *MemoryCache) GetRecommendations(_ context.Context, userID, contextHash string) ([]models.RecommendationResult, error) {
	results, ok := m.recs.Get(listKey(userID, contextHash))
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneResults(results), nil
}

// PutRecommendations caches a copy of results for ttl.
func (m *MemoryCache) PutRecommendations(_ context.Context, userID, contextHash string, results []models.RecommendationResult, ttl time.Duration) error {
	m.recs.SetWithTTL(listKey(userID, contextHash), cloneResults(results), m.expiry(ttl))
	return nil
}

func cloneResults(in []models.RecommendationResult) []models.RecommendationResult {
	out := make([]models.RecommendationResult, len(in))
	copy(out, in)
	for i := range out {
		out[i].Reasons = append([]string(nil), in[i].Reasons...)
	}
	return out
}

// Ensure MemoryCache implements the cache interfaces.
var (
	_ recommend.SimilarityCache     = (*MemoryCache)(nil)
	_ recommend.RecommendationCache = (*MemoryCache)(nil)
)
