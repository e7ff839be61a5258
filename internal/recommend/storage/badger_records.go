// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// GetProfile retrieves a profile by user ID.
func (s *Badger) GetProfile(ctx context.Context, userID string) (*models.PalateProfile, error) {
	var p models.PalateProfile
	if err := s.getJSON([]byte(profileKeyPrefix+userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile stores a profile, replacing any previous version.
func (s *Badger) UpsertProfile(ctx context.Context, profile *models.PalateProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("%w: profile user_id is required", recommend.ErrInvalidArgument)
	}
	return s.putJSON([]byte(profileKeyPrefix+profile.UserID), profile, 0)
}

// ListProfiles returns up to limit profiles in user id order. A limit of
// zero or less returns all of them.
func (s *Badger) ListProfiles(ctx context.Context, limit int) ([]*models.PalateProfile, error) {
	var out []*models.PalateProfile
	err := scan(ctx, s, profileKeyPrefix, func(p *models.PalateProfile) bool {
		out = append(out, p)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// AppendExperience stores an experience. Experiences are immutable; a
// record with an existing id and timestamp is overwritten unchanged.
func (s *Badger) AppendExperience(ctx context.Context, exp *models.FoodExperience) error {
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	if exp.Timestamp.IsZero() {
		exp.Timestamp = s.now()
	}
	return s.putJSON(invertedKey(experienceKeyPrefix, exp.Timestamp.UnixNano(), exp.ID), exp, 0)
}

// QueryCandidates returns experiences matching filter, newest first. The
// scan stops at the first record older than filter.Since.
func (s *Badger) QueryCandidates(ctx context.Context, filter models.CandidateFilter) ([]*models.FoodExperience, error) {
	var out []*models.FoodExperience
	err := scan(ctx, s, experienceKeyPrefix, func(e *models.FoodExperience) bool {
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			return false
		}
		if filter.Matches(e) {
			out = append(out, e)
		}
		return filter.Limit <= 0 || len(out) < filter.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	return out, nil
}

// AppendFeedback stores an interaction record.
func (s *Badger) AppendFeedback(ctx context.Context, record *models.InteractionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	return s.putJSON(invertedKey(feedbackKeyPrefix, record.Timestamp.UnixNano(), record.ID), record, 0)
}

// QueryFeedback returns records at or after since, newest first.
func (s *Badger) QueryFeedback(ctx context.Context, since time.Time, limit int) ([]*models.InteractionRecord, error) {
	var out []*models.InteractionRecord
	err := scan(ctx, s, feedbackKeyPrefix, func(r *models.InteractionRecord) bool {
		if r.Timestamp.Before(since) {
			return false
		}
		out = append(out, r)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	return out, nil
}

// CountFeedbackSince counts records at or after since.
func (s *Badger) CountFeedbackSince(ctx context.Context, since time.Time) (int, error) {
	if since.IsZero() {
		return s.count(feedbackKeyPrefix)
	}
	n := 0
	err := scan(ctx, s, feedbackKeyPrefix, func(r *models.InteractionRecord) bool {
		if r.Timestamp.Before(since) {
			return false
		}
		n++
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// AppendPerformance stores an evaluation in the append-only history.
func (s *Badger) AppendPerformance(ctx context.Context, perf *models.ModelPerformance) error {
	if perf.ID == "" {
		perf.ID = uuid.NewString()
	}
	if perf.EvaluatedAt.IsZero() {
		perf.EvaluatedAt = s.now()
	}
	return s.putJSON(invertedKey(performanceKeyPrefix, perf.EvaluatedAt.UnixNano(), perf.ID), perf, 0)
}

// LatestPerformance returns the most recent evaluation.
func (s *Badger) LatestPerformance(ctx context.Context) (*models.ModelPerformance, error) {
	list, err := s.ListPerformance(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return list[0], nil
}

// ListPerformance returns up to limit evaluations, newest first.
func (s *Badger) ListPerformance(ctx context.Context, limit int) ([]*models.ModelPerformance, error) {
	var out []*models.ModelPerformance
	err := scan(ctx, s, performanceKeyPrefix, func(p *models.ModelPerformance) bool {
		out = append(out, p)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	return out, nil
}

// SaveSnapshot stores a promoted snapshot keyed by version.
func (s *Badger) SaveSnapshot(ctx context.Context, snap *recommend.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return s.putJSON(invertedKey(snapshotKeyPrefix, snap.Version, ""), snap, 0)
}

// LatestSnapshot returns the highest-versioned snapshot.
func (s *Badger) LatestSnapshot(ctx context.Context) (*recommend.Snapshot, error) {
	var latest *recommend.Snapshot
	err := scan(ctx, s, snapshotKeyPrefix, func(snap *recommend.Snapshot) bool {
		latest = snap
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return latest, nil
}

// GetSimilarity returns the cached similarity for an unordered pair.
func (s *Badger) GetSimilarity(ctx context.Context, userA, userB string) (*models.UserSimilarity, error) {
	var sim models.UserSimilarity
	if err := s.getJSON([]byte(similarityKeyPrefix+pairKey(userA, userB)), &sim); err != nil {
		return nil, err
	}
	if sim.Expired(s.now()) {
		return nil, models.ErrNotFound
	}
	return &sim, nil
}

// UpsertSimilarity caches a similarity record for ttl.
func (s *Badger) UpsertSimilarity(ctx context.Context, sim *models.UserSimilarity, ttl time.Duration) error {
	return s.putJSON([]byte(similarityKeyPrefix+pairKey(sim.UserA, sim.UserB)), sim, ttl)
}

// GetRecommendations returns a cached ranked list.
func (s *Badger) GetRecommendations(ctx context.Context, userID, contextHash string) ([]models.RecommendationResult, error) {
	var results []models.RecommendationResult
	if err := s.getJSON([]byte(recommendKeyPrefix+listKey(userID, contextHash)), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// PutRecommendations caches a ranked list for ttl.
func (s *Badger) PutRecommendations(ctx context.Context, userID, contextHash string, results []models.RecommendationResult, ttl time.Duration) error {
	return s.putJSON([]byte(recommendKeyPrefix+listKey(userID, contextHash)), results, ttl)
}
