// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/taste"
)

// Config contains configuration for collaborative filtering.
type Config struct {
	// SimilarityThreshold is the minimum overall similarity for a pair
	// to be retained. It also gates the confidence boost.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// ConfidenceThreshold is the minimum pair confidence to be retained.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// SimilarityTTL is how long a retained pair stays cached.
	SimilarityTTL time.Duration `koanf:"similarity_ttl"`

	// BatchSize bounds concurrent similarity computations.
	BatchSize int `koanf:"batch_size"`

	// MaxPeers bounds how many profiles are compared per request.
	MaxPeers int `koanf:"max_peers"`

	// PeerPool bounds how many stored profiles are read per request
	// before the MaxPeers closest by taste vector are kept. Zero reads
	// every profile.
	PeerPool int `koanf:"peer_pool"`

	// HistoryDepth is how many recent evolution entries are compared.
	HistoryDepth int `koanf:"history_depth"`

	// MinDirectRaters is how many similar users must have rated an item
	// before similar-item ratings stop being pulled in.
	MinDirectRaters int `koanf:"min_direct_raters"`

	// SimilarItemThreshold is the taste similarity above which another
	// item's ratings stand in for the candidate's in user-based scoring.
	SimilarItemThreshold float64 `koanf:"similar_item_threshold"`

	// ItemNeighborThreshold is the taste similarity above which a
	// same-cuisine item counts as a neighbor in item-based scoring.
	ItemNeighborThreshold float64 `koanf:"item_neighbor_threshold"`

	// MaxItemNeighbors caps the neighbors used in item-based scoring.
	MaxItemNeighbors int `koanf:"max_item_neighbors"`

	// UserBasedWeight is the user-based share of the item score; the
	// rest is item-based.
	UserBasedWeight float64 `koanf:"user_based_weight"`

	// AlgorithmVersion is stamped on similarity records.
	AlgorithmVersion string `koanf:"algorithm_version"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:   0.90,
		ConfidenceThreshold:   0.85,
		SimilarityTTL:         7 * 24 * time.Hour,
		BatchSize:             5,
		MaxPeers:              200,
		PeerPool:              5000,
		HistoryDepth:          10,
		MinDirectRaters:       3,
		SimilarItemThreshold:  0.8,
		ItemNeighborThreshold: 0.90,
		MaxItemNeighbors:      10,
		UserBasedWeight:       0.6,
		AlgorithmVersion:      "collab-v1",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"similarity_threshold":    c.SimilarityThreshold,
		"confidence_threshold":    c.ConfidenceThreshold,
		"similar_item_threshold":  c.SimilarItemThreshold,
		"item_neighbor_threshold": c.ItemNeighborThreshold,
		"user_based_weight":       c.UserBasedWeight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("recommend.collaborative.%s must be in [0,1], got %f", name, v)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("recommend.collaborative.batch_size must be positive, got %d", c.BatchSize)
	}
	if c.SimilarityTTL <= 0 {
		return fmt.Errorf("recommend.collaborative.similarity_ttl must be positive, got %s", c.SimilarityTTL)
	}
	if c.MaxPeers < 0 || c.PeerPool < 0 || c.HistoryDepth < 0 || c.MaxItemNeighbors < 0 || c.MinDirectRaters < 0 {
		return fmt.Errorf("recommend.collaborative limits must be non-negative")
	}
	return nil
}

// Collaborative finds similar users and scores items from their ratings.
// It is safe for concurrent use.
type Collaborative struct {
	config   Config
	profiles recommend.ProfileStore
	cache    recommend.SimilarityCache
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCollaborative creates a collaborative filter. cache may be nil, in
// which case every pair is recomputed per request.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborative(cfg Config, profiles recommend.ProfileStore, cache recommend.SimilarityCache, logger zerolog.Logger) (*Collaborative, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	return &Collaborative{
		config:   cfg,
		profiles: profiles,
		cache:    cache,
		logger:   logger.With().Str("component", "collaborative").Logger(),
		now:      time.Now,
	}, nil
}

// Name returns the algorithm identifier.
func (c *Collaborative) Name() string {
	return "collaborative"
}

// SimilarUsers returns the retained similar users for profile, best first.
// Pairs are computed in batches of at most BatchSize at a time.
func (c *Collaborative) SimilarUsers(ctx context.Context, profile *models.PalateProfile) ([]models.UserSimilarity, error) {
	pool, err := c.profiles.ListProfiles(ctx, c.config.PeerPool)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	peers := closestPeers(profile, pool, c.config.MaxPeers)

	found := make([]*models.UserSimilarity, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.BatchSize)

	for i, peer := range peers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[i] = c.pairSimilarity(gctx, profile, peer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	similar := make([]models.UserSimilarity, 0, len(found))
	for _, s := range found {
		if s != nil {
			similar = append(similar, *s)
		}
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Overall != similar[j].Overall {
			return similar[i].Overall > similar[j].Overall
		}
		return similar[i].Other(profile.UserID) < similar[j].Other(profile.UserID)
	})
	return similar, nil
}

// closestPeers drops profile itself from pool and keeps the limit profiles
// with the highest taste-vector similarity to it, ties by user id.
func closestPeers(profile *models.PalateProfile, pool []*models.PalateProfile, limit int) []*models.PalateProfile {
	type scored struct {
		peer *models.PalateProfile
		sim  float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, peer := range pool {
		if peer == nil || peer.UserID == profile.UserID {
			continue
		}
		ranked = append(ranked, scored{peer: peer, sim: taste.Similarity(profile.Vector, peer.Vector)})
	}
	if len(ranked) > limit {
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].sim != ranked[j].sim {
				return ranked[i].sim > ranked[j].sim
			}
			return ranked[i].peer.UserID < ranked[j].peer.UserID
		})
		ranked = ranked[:limit]
	}
	out := make([]*models.PalateProfile, len(ranked))
	for i, r := range ranked {
		out[i] = r.peer
	}
	return out
}

// pairSimilarity returns the retained similarity of a and b, or nil. A
// live cache entry is trusted; otherwise the pair is computed and cached
// only if it is retained. Concurrent requests may compute the same pair;
// the upsert is idempotent.
func (c *Collaborative) pairSimilarity(ctx context.Context, a, b *models.PalateProfile) *models.UserSimilarity {
	now := c.now()
	if c.cache != nil {
		cached, err := c.cache.GetSimilarity(ctx, a.UserID, b.UserID)
		switch {
		case err == nil && !cached.Expired(now):
			metrics.RecordCache("similarity", true)
			if Retained(cached, c.config) {
				return cached
			}
			return nil
		case err == nil, errors.Is(err, models.ErrNotFound):
			metrics.RecordCache("similarity", false)
		default:
			metrics.RecordCache("similarity", false)
			c.logger.Debug().Err(err).Str("user_a", a.UserID).Str("user_b", b.UserID).Msg("similarity cache read failed")
		}
	}

	sim := ComputeSimilarity(a, b, c.config, now)
	if !Retained(&sim, c.config) {
		return nil
	}
	if c.cache != nil {
		if err := c.cache.UpsertSimilarity(ctx, &sim, c.config.SimilarityTTL); err != nil {
			c.logger.Debug().Err(err).Str("user_a", sim.UserA).Str("user_b", sim.UserB).Msg("similarity cache write failed")
		}
	}
	return &sim
}

// Neighborhood implements recommend.Collaborative.
func (c *Collaborative) Neighborhood(ctx context.Context, profile *models.PalateProfile, catalog []*recommend.Candidate) (recommend.Neighborhood, error) {
	similar, err := c.SimilarUsers(ctx, profile)
	if err != nil {
		return nil, err
	}
	return newNeighborhood(c.config, profile.UserID, similar, catalog, c.now()), nil
}

// neighborhood scores items for one user from their similar users.
type neighborhood struct {
	config  Config
	userID  string
	similar []models.UserSimilarity
	byUser  map[string]*models.UserSimilarity
	catalog []*recommend.Candidate
	now     time.Time
}

//nolint:gocritic // hugeParam: cfg passed by value for immutability
func newNeighborhood(cfg Config, userID string, similar []models.UserSimilarity, catalog []*recommend.Candidate, now time.Time) *neighborhood {
	n := &neighborhood{
		config:  cfg,
		userID:  userID,
		similar: similar,
		byUser:  make(map[string]*models.UserSimilarity, len(similar)),
		catalog: catalog,
		now:     now,
	}
	for i := range similar {
		n.byUser[similar[i].Other(userID)] = &similar[i]
	}
	return n
}

// Similar implements recommend.Neighborhood.
func (n *neighborhood) Similar() []models.UserSimilarity {
	return n.similar
}

// ItemScore blends user-based and item-based scores. When no item
// neighbors exist the user-based score stands alone.
func (n *neighborhood) ItemScore(c *recommend.Candidate) float64 {
	user := n.userBased(c)
	item, ok := n.itemBased(c)
	if !ok {
		return user
	}
	w := n.config.UserBasedWeight
	return clamp01(w*user + (1-w)*item)
}

// userBased walks the fallback tiers: direct ratings (topped up with
// similar-item ratings when fewer than MinDirectRaters), then the
// cuisine-level average, then the mean similarity of the neighborhood.
func (n *neighborhood) userBased(c *recommend.Candidate) float64 {
	if len(n.similar) == 0 {
		return neutralAlignment
	}

	var acc ratingAccumulator
	raters := make(map[string]struct{})
	for _, o := range c.Observations {
		if n.add(&acc, o) {
			raters[o.UserID] = struct{}{}
		}
	}

	if len(raters) < n.config.MinDirectRaters {
		for _, other := range n.catalog {
			if other.ItemID == c.ItemID || taste.Similarity(c.Taste, other.Taste) <= n.config.SimilarItemThreshold {
				continue
			}
			for _, o := range other.Observations {
				n.add(&acc, o)
			}
		}
	}
	if score, ok := acc.mean(); ok {
		return score
	}

	var cuisine ratingAccumulator
	for _, other := range n.catalog {
		if other.Cuisine != c.Cuisine {
			continue
		}
		for _, o := range other.Observations {
			n.add(&cuisine, o)
		}
	}
	if score, ok := cuisine.mean(); ok {
		return score
	}

	var sum float64
	for i := range n.similar {
		sum += n.similar[i].Overall
	}
	return clamp01(sum / float64(len(n.similar)))
}

// add folds o into acc if its author is a similar user. It reports
// whether the rating carried any weight.
func (n *neighborhood) add(acc *ratingAccumulator, o *models.FoodExperience) bool {
	sim, ok := n.byUser[o.UserID]
	if !ok {
		return false
	}
	w := sim.Overall * sim.Confidence * TimeDecay(n.now.Sub(o.Timestamp)) * o.Confidence
	if w <= 0 {
		return false
	}
	acc.add(o.Emotion.OverallRating/taste.MaxValue, w)
	return true
}

// itemBased averages the mean ratings of the most similar same-cuisine
// items, weighted by similarity and rating volume.
func (n *neighborhood) itemBased(c *recommend.Candidate) (float64, bool) {
	type itemNeighbor struct {
		cand *recommend.Candidate
		sim  float64
	}
	var neighbors []itemNeighbor
	for _, other := range n.catalog {
		if other.ItemID == c.ItemID || other.Cuisine != c.Cuisine || other.Ratings == 0 {
			continue
		}
		if s := taste.Similarity(c.Taste, other.Taste); s > n.config.ItemNeighborThreshold {
			neighbors = append(neighbors, itemNeighbor{other, s})
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].sim != neighbors[j].sim {
			return neighbors[i].sim > neighbors[j].sim
		}
		return neighbors[i].cand.ItemID < neighbors[j].cand.ItemID
	})
	if len(neighbors) > n.config.MaxItemNeighbors {
		neighbors = neighbors[:n.config.MaxItemNeighbors]
	}

	var acc ratingAccumulator
	for _, nb := range neighbors {
		volume := float64(nb.cand.Ratings) / 5
		if volume > 1 {
			volume = 1
		}
		acc.add(nb.cand.MeanRating/taste.MaxValue, nb.sim*volume)
	}
	return acc.mean()
}

type ratingAccumulator struct {
	sum, weight float64
}

func (a *ratingAccumulator) add(value, weight float64) {
	a.sum += value * weight
	a.weight += weight
}

func (a *ratingAccumulator) mean() (float64, bool) {
	if a.weight <= 0 {
		return 0, false
	}
	return clamp01(a.sum / a.weight), true
}

// Ensure Collaborative implements the interface.
var _ recommend.Collaborative = (*Collaborative)(nil)
