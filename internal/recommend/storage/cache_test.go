// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/models"
)

// exerciseCache runs the behavior every cache backend must share.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, err := c.GetSimilarity(ctx, "a", "b"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetSimilarity(miss) error = %v", err)
	}
	sim := &models.UserSimilarity{UserA: "b", UserB: "a", Overall: 0.93}
	if err := c.UpsertSimilarity(ctx, sim, time.Minute); err != nil {
		t.Fatalf("UpsertSimilarity() error = %v", err)
	}
	got, err := c.GetSimilarity(ctx, "a", "b")
	if err != nil || got.Overall != 0.93 {
		t.Errorf("GetSimilarity() = %+v, %v", got, err)
	}

	results := []models.RecommendationResult{{ItemID: "pho", Reasons: []string{"Matches your taste"}}}
	if err := c.PutRecommendations(ctx, "u", "hash", results, time.Minute); err != nil {
		t.Fatalf("PutRecommendations() error = %v", err)
	}
	cached, err := c.GetRecommendations(ctx, "u", "hash")
	if err != nil || len(cached) != 1 || cached[0].Reasons[0] != "Matches your taste" {
		t.Errorf("GetRecommendations() = %+v, %v", cached, err)
	}
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	exerciseCache(t, c)

	// Mutating a returned list does not leak into the cache.
	ctx := context.Background()
	first, _ := c.GetRecommendations(ctx, "u", "hash")
	first[0].Reasons[0] = "changed"
	second, _ := c.GetRecommendations(ctx, "u", "hash")
	if second[0].Reasons[0] != "Matches your taste" {
		t.Error("cached list was mutated through a returned copy")
	}
	if rates := c.HitRates(); rates["recommendations"] <= 0 {
		t.Errorf("HitRates() = %v", rates)
	}
}

func TestBadgerCache(t *testing.T) {
	t.Parallel()
	exerciseCache(t, openTestBadger(t))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr, KeyPrefix: "palate-test-" + uuid.NewString() + ":"})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	exerciseCache(t, c)
}

func TestKeys_Unambiguous(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"pair separator in first id", pairKey("a:b", "c"), pairKey("a", "b:c"), false},
		{"pair order independent", pairKey("x", "y"), pairKey("y", "x"), true},
		{"list separator in user id", listKey("u:x", "h"), listKey("u", "x:h"), false},
		{"list same inputs", listKey("u", "h"), listKey("u", "h"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.a == tt.b; got != tt.equal {
				t.Errorf("keys %q and %q: equal = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestCache_ColonIDsDoNotCollide(t *testing.T) {
	t.Parallel()

	mem := NewMemoryCache(time.Hour)
	t.Cleanup(mem.Close)
	tests := []struct {
		name  string
		cache Cache
	}{
		{"memory", mem},
		{"badger", openTestBadger(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			sim := &models.UserSimilarity{UserA: "a:b", UserB: "c", Overall: 0.7}
			if err := tt.cache.UpsertSimilarity(ctx, sim, time.Minute); err != nil {
				t.Fatalf("UpsertSimilarity() error = %v", err)
			}
			if _, err := tt.cache.GetSimilarity(ctx, "a", "b:c"); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("GetSimilarity(a, b:c) error = %v, want ErrNotFound", err)
			}
			if got, err := tt.cache.GetSimilarity(ctx, "c", "a:b"); err != nil || got.Overall != 0.7 {
				t.Errorf("GetSimilarity(c, a:b) = %+v, %v", got, err)
			}

			results := []models.RecommendationResult{{ItemID: "ramen"}}
			if err := tt.cache.PutRecommendations(ctx, "u:x", "h", results, time.Minute); err != nil {
				t.Fatalf("PutRecommendations() error = %v", err)
			}
			if _, err := tt.cache.GetRecommendations(ctx, "u", "x:h"); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("GetRecommendations(u, x:h) error = %v, want ErrNotFound", err)
			}
		})
	}
}

type failingBackend struct {
	*Badger
	calls int
}

func (f *failingBackend) GetProfile(context.Context, string) (*models.PalateProfile, error) {
	f.calls++
	return nil, fmt.Errorf("disk on fire")
}

func TestGuarded_OpensOnFailures(t *testing.T) {
	t.Parallel()

	cfg := breaker.DefaultConfig()
	cfg.MinRequests = 3
	cfg.FailureRatio = 0.5
	cfg.OpenTimeout = time.Hour
	backend := &failingBackend{Badger: openTestBadger(t)}
	g := NewGuarded(backend, breaker.New("test-store-"+uuid.NewString(), cfg))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := g.GetProfile(ctx, "u"); err == nil {
			t.Fatal("GetProfile() should fail")
		}
	}
	_, err := g.GetProfile(ctx, "u")
	if !errors.Is(err, breaker.ErrOpen) {
		t.Errorf("GetProfile() error = %v, want ErrOpen", err)
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3", backend.calls)
	}
}

func TestGuarded_NotFoundDoesNotTrip(t *testing.T) {
	t.Parallel()

	cfg := breaker.DefaultConfig()
	cfg.MinRequests = 1
	cfg.FailureRatio = 0.1
	s, err := OpenBadger(Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer s.Close()
	g := NewGuarded(s, breaker.New("test-notfound-"+uuid.NewString(), cfg))

	for i := 0; i < 5; i++ {
		if _, err := g.GetProfile(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("GetProfile() error = %v, want ErrNotFound", err)
		}
	}
}
