// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

func openTestBadger(t *testing.T) *Badger {
	t.Helper()
	s, err := OpenBadger(Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadger_Profiles(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}

	for _, id := range []string{"carol", "alice", "bob"} {
		p := &models.PalateProfile{UserID: id, Matrix: models.NewEmotionalMatrix(0.5), Confidence: 10}
		if err := s.UpsertProfile(ctx, p); err != nil {
			t.Fatalf("UpsertProfile(%s) error = %v", id, err)
		}
	}
	updated := &models.PalateProfile{UserID: "bob", Confidence: 42, Version: 2}
	if err := s.UpsertProfile(ctx, updated); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	got, err := s.GetProfile(ctx, "bob")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Confidence != 42 || got.Version != 2 {
		t.Errorf("GetProfile() = %+v, want latest version", got)
	}

	list, err := s.ListProfiles(ctx, 2)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(list) != 2 || list[0].UserID != "alice" || list[1].UserID != "bob" {
		t.Errorf("ListProfiles(2) = %v", list)
	}

	if err := s.UpsertProfile(ctx, &models.PalateProfile{}); !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Errorf("UpsertProfile(no id) error = %v", err)
	}
}

func TestBadger_ExperiencesNewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	exps := []*models.FoodExperience{
		{ID: "e1", UserID: "u1", ItemID: "pho", Cuisine: models.Vietnamese, Price: models.Budget, Timestamp: base},
		{ID: "e2", UserID: "u2", ItemID: "sushi", Cuisine: models.Japanese, Price: models.Luxury, Timestamp: base.Add(time.Hour)},
		{ID: "e3", UserID: "u1", ItemID: "ramen", Cuisine: models.Japanese, Price: models.Moderate, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, e := range exps {
		if err := s.AppendExperience(ctx, e); err != nil {
			t.Fatalf("AppendExperience() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.CandidateFilter
		want   []string
	}{
		{"all", models.CandidateFilter{}, []string{"e3", "e2", "e1"}},
		{"cuisine", models.CandidateFilter{Cuisines: []models.Cuisine{models.Japanese}}, []string{"e3", "e2"}},
		{"max price", models.CandidateFilter{MaxPrice: models.Moderate}, []string{"e3", "e1"}},
		{"since", models.CandidateFilter{Since: base.Add(30 * time.Minute)}, []string{"e3", "e2"}},
		{"limit", models.CandidateFilter{Limit: 1}, []string{"e3"}},
		{"exclude user", models.CandidateFilter{ExcludeUserID: "u1"}, []string{"e2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryCandidates(ctx, tt.filter)
			if err != nil {
				t.Fatalf("QueryCandidates() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("QueryCandidates() returned %d, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("result[%d] = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}
}

func TestBadger_Feedback(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := &models.InteractionRecord{UserID: "u", ItemID: "i", Rating: float64(i), Timestamp: base.Add(time.Duration(i) * 24 * time.Hour)}
		if err := s.AppendFeedback(ctx, r); err != nil {
			t.Fatalf("AppendFeedback() error = %v", err)
		}
		if r.ID == "" {
			t.Error("AppendFeedback() should assign an id")
		}
	}

	since := base.Add(2 * 24 * time.Hour)
	n, err := s.CountFeedbackSince(ctx, since)
	if err != nil || n != 3 {
		t.Errorf("CountFeedbackSince() = %d, %v; want 3", n, err)
	}
	total, err := s.CountFeedbackSince(ctx, time.Time{})
	if err != nil || total != 5 {
		t.Errorf("CountFeedbackSince(zero) = %d, %v; want 5", total, err)
	}

	got, err := s.QueryFeedback(ctx, since, 2)
	if err != nil {
		t.Fatalf("QueryFeedback() error = %v", err)
	}
	if len(got) != 2 || got[0].Rating != 4 || got[1].Rating != 3 {
		t.Errorf("QueryFeedback() = %+v", got)
	}
}

func TestBadger_PerformanceAndSnapshots(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t)
	ctx := context.Background()

	if _, err := s.LatestPerformance(ctx); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("LatestPerformance(empty) error = %v", err)
	}
	if _, err := s.LatestSnapshot(ctx); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("LatestSnapshot(empty) error = %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, acc := range []float64{0.6, 0.7, 0.8} {
		perf := &models.ModelPerformance{Accuracy: acc, EvaluatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.AppendPerformance(ctx, perf); err != nil {
			t.Fatalf("AppendPerformance() error = %v", err)
		}
	}
	latest, err := s.LatestPerformance(ctx)
	if err != nil || latest.Accuracy != 0.8 {
		t.Errorf("LatestPerformance() = %+v, %v", latest, err)
	}
	history, err := s.ListPerformance(ctx, 0)
	if err != nil || len(history) != 3 || history[2].Accuracy != 0.6 {
		t.Errorf("ListPerformance() = %+v, %v", history, err)
	}

	for _, v := range []int64{2, 10, 9} {
		snap := recommend.DefaultSnapshot(recommend.DefaultFusionWeights())
		snap.Version = v
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot(%d) error = %v", v, err)
		}
	}
	snap, err := s.LatestSnapshot(ctx)
	if err != nil || snap.Version != 10 {
		t.Errorf("LatestSnapshot() = %+v, %v; want version 10", snap, err)
	}

	bad := recommend.DefaultSnapshot(recommend.DefaultFusionWeights())
	bad.Scale = -1
	if err := s.SaveSnapshot(ctx, bad); err == nil {
		t.Error("SaveSnapshot() should reject an invalid snapshot")
	}
}

func TestBadger_CachesExpire(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	sim := &models.UserSimilarity{UserA: "a", UserB: "b", Overall: 0.95, ExpiresAt: now.Add(time.Hour)}
	if err := s.UpsertSimilarity(ctx, sim, time.Hour); err != nil {
		t.Fatalf("UpsertSimilarity() error = %v", err)
	}
	got, err := s.GetSimilarity(ctx, "b", "a")
	if err != nil || got.Overall != 0.95 {
		t.Fatalf("GetSimilarity(reversed) = %+v, %v", got, err)
	}

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := s.GetSimilarity(ctx, "a", "b"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expired similarity error = %v, want ErrNotFound", err)
	}

	results := []models.RecommendationResult{{ItemID: "x", Total: 0.8, Reasons: []string{"r"}}}
	if err := s.PutRecommendations(ctx, "u", "h", results, time.Hour); err != nil {
		t.Fatalf("PutRecommendations() error = %v", err)
	}
	cached, err := s.GetRecommendations(ctx, "u", "h")
	if err != nil || len(cached) != 1 || cached[0].ItemID != "x" {
		t.Errorf("GetRecommendations() = %+v, %v", cached, err)
	}
	if _, err := s.GetRecommendations(ctx, "u", "other"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetRecommendations(miss) error = %v", err)
	}
}

func TestBadger_Ping(t *testing.T) {
	t.Parallel()
	s, err := OpenBadger(Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping(open) = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping(closed) = nil, want error")
	}
}
