// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/taste"
)

type memProfiles struct {
	profiles []*models.PalateProfile
}

func (m *memProfiles) GetProfile(_ context.Context, userID string) (*models.PalateProfile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			return p.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memProfiles) UpsertProfile(context.Context, *models.PalateProfile) error { return nil }

func (m *memProfiles) ListProfiles(_ context.Context, limit int) ([]*models.PalateProfile, error) {
	out := make([]*models.PalateProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSimilarities struct {
	mu     sync.Mutex
	sims   map[[2]string]models.UserSimilarity
	reads  int
	writes int
}

func newMemSimilarities() *memSimilarities {
	return &memSimilarities{sims: make(map[[2]string]models.UserSimilarity)}
}

func (m *memSimilarities) GetSimilarity(_ context.Context, a, b string) (*models.UserSimilarity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	a, b = models.OrderedPair(a, b)
	s, ok := m.sims[[2]string{a, b}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (m *memSimilarities) UpsertSimilarity(_ context.Context, s *models.UserSimilarity, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.sims[[2]string{s.UserA, s.UserB}] = *s
	return nil
}

func TestSimilarUsers_RetainsAndCaches(t *testing.T) {
	t.Parallel()

	me := expertProfile("me", spike(taste.Sweet, 8))
	twin := expertProfile("twin", spike(taste.Sweet, 7))
	stranger := expertProfile("stranger", spike(taste.Bitter, 9))
	store := &memProfiles{profiles: []*models.PalateProfile{me, twin, stranger}}
	cache := newMemSimilarities()

	c, err := NewCollaborative(DefaultConfig(), store, cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCollaborative: %v", err)
	}

	similar, err := c.SimilarUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if len(similar) != 1 || similar[0].Other("me") != "twin" {
		t.Fatalf("similar = %+v, want only twin", similar)
	}
	if cache.writes != 1 {
		t.Errorf("writes = %d, want only the retained pair cached", cache.writes)
	}

	// Second pass is served from the cache.
	if _, err := c.SimilarUsers(context.Background(), me); err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if cache.writes != 1 {
		t.Errorf("writes = %d after cached pass, want 1", cache.writes)
	}
}

func TestSimilarUsers_TrustsLiveCacheEntry(t *testing.T) {
	t.Parallel()

	me := expertProfile("me", spike(taste.Sweet, 8))
	other := expertProfile("other", spike(taste.Bitter, 9))
	cache := newMemSimilarities()
	now := time.Now()
	cache.sims[[2]string{"me", "other"}] = models.UserSimilarity{
		UserA: "me", UserB: "other", Overall: 0.99, Confidence: 0.99, ExpiresAt: now.Add(time.Hour),
	}

	c, err := NewCollaborative(DefaultConfig(), &memProfiles{profiles: []*models.PalateProfile{me, other}}, cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCollaborative: %v", err)
	}
	c.now = func() time.Time { return now }

	similar, err := c.SimilarUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if len(similar) != 1 || similar[0].Overall != 0.99 {
		t.Errorf("cached entry not used: %+v", similar)
	}

	// Once expired, the pair is recomputed and dropped.
	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	similar, err = c.SimilarUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if len(similar) != 0 {
		t.Errorf("expired entry should be recomputed, got %+v", similar)
	}
}

func TestSimilarUsers_MaxPeers(t *testing.T) {
	t.Parallel()

	me := expertProfile("a-me", spike(taste.Sweet, 8))
	profiles := []*models.PalateProfile{me}
	for _, id := range []string{"b", "c", "d", "e"} {
		profiles = append(profiles, expertProfile(id, spike(taste.Sweet, 8)))
	}
	cfg := DefaultConfig()
	cfg.MaxPeers = 2

	c, err := NewCollaborative(cfg, &memProfiles{profiles: profiles}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCollaborative: %v", err)
	}
	similar, err := c.SimilarUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if len(similar) != 2 {
		t.Errorf("len(similar) = %d, want 2", len(similar))
	}
}

func TestSimilarUsers_PicksClosestPeersNotFirstIDs(t *testing.T) {
	t.Parallel()

	me := expertProfile("m-me", spike(taste.Sweet, 8))
	profiles := []*models.PalateProfile{
		me,
		expertProfile("a-far", spike(taste.Bitter, 9)),
		expertProfile("b-far", spike(taste.Sour, 9)),
		expertProfile("z-twin", spike(taste.Sweet, 7)),
	}
	cfg := DefaultConfig()
	cfg.MaxPeers = 1

	c, err := NewCollaborative(cfg, &memProfiles{profiles: profiles}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCollaborative: %v", err)
	}
	similar, err := c.SimilarUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("SimilarUsers: %v", err)
	}
	if len(similar) != 1 || similar[0].Other("m-me") != "z-twin" {
		t.Errorf("similar = %+v, want z-twin", similar)
	}
}

func TestClosestPeers(t *testing.T) {
	t.Parallel()

	me := expertProfile("me", spike(taste.Sweet, 8))
	pool := []*models.PalateProfile{
		expertProfile("a", spike(taste.Bitter, 9)),
		me,
		nil,
		expertProfile("c", spike(taste.Sweet, 9)),
		expertProfile("b", spike(taste.Sweet, 9)),
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"zero keeps none", 0, nil},
		{"ties break by id", 2, []string{"b", "c"}},
		{"limit above pool keeps all but self", 10, []string{"a", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := closestPeers(me, pool, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("closestPeers() returned %d peers, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.UserID != tt.want[i] {
					t.Errorf("peer[%d] = %s, want %s", i, p.UserID, tt.want[i])
				}
			}
		})
	}
}

func rating(user string, score float64, age time.Duration, now time.Time) *models.FoodExperience {
	return &models.FoodExperience{
		UserID:     user,
		Emotion:    models.EmotionalResponse{OverallRating: score},
		Confidence: 1,
		Timestamp:  now.Add(-age),
	}
}

func candidate(id string, cuisine models.Cuisine, vec taste.Vector, obs ...*models.FoodExperience) *recommend.Candidate {
	c := &recommend.Candidate{ItemID: id, Cuisine: cuisine, Taste: vec, Observations: obs, Ratings: len(obs)}
	var sum float64
	for _, o := range obs {
		sum += o.Emotion.OverallRating
	}
	if len(obs) > 0 {
		c.MeanRating = sum / float64(len(obs))
	}
	return c
}

func peers(ids ...string) []models.UserSimilarity {
	out := make([]models.UserSimilarity, len(ids))
	for i, id := range ids {
		out[i] = models.UserSimilarity{UserA: "me", UserB: id, Overall: 0.95, Confidence: 1}
	}
	return out
}

func TestNeighborhood_UserBasedTiers(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cfg := DefaultConfig()
	cfg.UserBasedWeight = 1

	t.Run("no similar users is neutral", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8), rating("p1", 10, 0, now))
		n := newNeighborhood(cfg, "me", nil, []*recommend.Candidate{item}, now)
		if got := n.ItemScore(item); got != 0.5 {
			t.Errorf("ItemScore = %f, want 0.5", got)
		}
	})

	t.Run("direct ratings", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8),
			rating("p1", 8, 0, now), rating("p2", 8, 0, now), rating("p3", 8, 0, now), rating("outsider", 0, 0, now))
		n := newNeighborhood(cfg, "me", peers("p1", "p2", "p3"), []*recommend.Candidate{item}, now)
		if got := n.ItemScore(item); math.Abs(got-0.8) > 1e-9 {
			t.Errorf("ItemScore = %f, want 0.8", got)
		}
	})

	t.Run("sparse ratings pull in similar items", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8), rating("p1", 10, 0, now))
		twin := candidate("y", models.Indian, spike(taste.Spicy, 6), rating("p1", 6, 0, now))
		n := newNeighborhood(cfg, "me", peers("p1"), []*recommend.Candidate{item, twin}, now)
		if got := n.ItemScore(item); math.Abs(got-0.8) > 1e-9 {
			t.Errorf("ItemScore = %f, want 0.8", got)
		}
	})

	t.Run("cuisine average when unrated", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8))
		sibling := candidate("z", models.Thai, spike(taste.Sour, 8), rating("p1", 4, 0, now))
		n := newNeighborhood(cfg, "me", peers("p1"), []*recommend.Candidate{item, sibling}, now)
		if got := n.ItemScore(item); math.Abs(got-0.4) > 1e-9 {
			t.Errorf("ItemScore = %f, want 0.4", got)
		}
	})

	t.Run("mean similarity as last resort", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8))
		n := newNeighborhood(cfg, "me", peers("p1", "p2"), []*recommend.Candidate{item}, now)
		if got := n.ItemScore(item); math.Abs(got-0.95) > 1e-9 {
			t.Errorf("ItemScore = %f, want 0.95", got)
		}
	})

	t.Run("older ratings weigh less", func(t *testing.T) {
		t.Parallel()
		item := candidate("x", models.Thai, spike(taste.Spicy, 8),
			rating("p1", 10, 0, now), rating("p2", 0, 365*24*time.Hour, now), rating("p3", 10, 0, now))
		n := newNeighborhood(cfg, "me", peers("p1", "p2", "p3"), []*recommend.Candidate{item}, now)
		if got := n.ItemScore(item); got <= 2.0/3 {
			t.Errorf("ItemScore = %f, want recent ratings to dominate", got)
		}
	})
}

func TestNeighborhood_ItemBased(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cfg := DefaultConfig()
	item := candidate("x", models.Thai, spike(taste.Spicy, 8),
		rating("p1", 10, 0, now), rating("p2", 10, 0, now), rating("p3", 10, 0, now))
	neighbor := candidate("y", models.Thai, spike(taste.Spicy, 5),
		rating("a", 0, 0, now), rating("b", 0, 0, now), rating("c", 0, 0, now), rating("d", 0, 0, now), rating("e", 0, 0, now))
	n := newNeighborhood(cfg, "me", peers("p1", "p2", "p3"), []*recommend.Candidate{item, neighbor}, now)

	// user-based 1.0 at 0.6, item-based 0.0 at 0.4
	if got := n.ItemScore(item); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("ItemScore = %f, want 0.6", got)
	}

	other := candidate("z", models.Italian, spike(taste.Spicy, 5), rating("a", 0, 0, now))
	n = newNeighborhood(cfg, "me", peers("p1", "p2", "p3"), []*recommend.Candidate{item, other}, now)
	if got := n.ItemScore(item); math.Abs(got-1) > 1e-9 {
		t.Errorf("other cuisines are not item neighbors, got %f", got)
	}
}

func TestNeighborhood_NoItemNeighborsKeepsUserScore(t *testing.T) {
	t.Parallel()

	now := time.Now()
	item := candidate("x", models.Thai, spike(taste.Spicy, 8),
		rating("p1", 9, 0, now), rating("p2", 9, 0, now), rating("p3", 9, 0, now))

	tests := []struct {
		name   string
		weight float64
	}{
		{"default blend", 0.6},
		{"item heavy blend", 0.2},
		{"item only blend", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.UserBasedWeight = tt.weight
			n := newNeighborhood(cfg, "me", peers("p1", "p2", "p3"), []*recommend.Candidate{item}, now)
			if got := n.ItemScore(item); math.Abs(got-0.9) > 1e-9 {
				t.Errorf("ItemScore = %f, want the user-based 0.9", got)
			}
		})
	}
}

func TestNeighborhood_ImplementsEngineContract(t *testing.T) {
	t.Parallel()

	me := expertProfile("me", spike(taste.Sweet, 8))
	c, err := NewCollaborative(DefaultConfig(), &memProfiles{profiles: []*models.PalateProfile{me}}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCollaborative: %v", err)
	}
	nb, err := c.Neighborhood(context.Background(), me, nil)
	if err != nil {
		t.Fatalf("Neighborhood: %v", err)
	}
	if len(nb.Similar()) != 0 {
		t.Errorf("a lone user has no neighbors, got %+v", nb.Similar())
	}
}
