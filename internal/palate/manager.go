// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package palate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/models"
)

// Store is the persistence the manager needs. Get returns
// models.ErrNotFound when the user has no profile.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.PalateProfile, error)
	UpsertProfile(ctx context.Context, profile *models.PalateProfile) error
}

// Manager owns profile creation and updates. Updates for the same user are
// serialized; different users proceed in parallel.
type Manager struct {
	store   Store
	learner *Learner
	locks   *keyedMutex
	logger  zerolog.Logger
	now     func() time.Time
}

// NewManager creates a profile manager.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewManager(store Store, cfg Config, logger zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		learner: NewLearner(cfg),
		locks:   newKeyedMutex(),
		logger:  logger.With().Str("component", "palate").Logger(),
		now:     time.Now,
	}
}

// Learner returns the manager's learner.
func (m *Manager) Learner() *Learner {
	return m.learner
}

// RecordExperience loads the user's profile, applies exp, and stores the
// result while holding the user's lock. A failed read aborts the update
// rather than starting a new profile over existing state.
func (m *Manager) RecordExperience(ctx context.Context, exp *models.FoodExperience) (*models.PalateProfile, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	unlock, err := m.locks.Lock(ctx, exp.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := m.store.GetProfile(ctx, exp.UserID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		current = nil
	case err != nil:
		return nil, fmt.Errorf("load profile %s: %w", exp.UserID, err)
	}

	next, err := m.learner.Apply(current, exp, m.now())
	if err != nil {
		return nil, err
	}

	if err := m.store.UpsertProfile(ctx, next); err != nil {
		return nil, fmt.Errorf("store profile %s: %w", exp.UserID, err)
	}

	ev := m.logger.Debug().
		Str("user_id", next.UserID).
		Int("experience_count", next.ExperienceCount).
		Str("maturity", next.Maturity.String()).
		Float64("confidence", next.Confidence)
	if n := len(next.History); n > 0 {
		ev = ev.Float64("magnitude", next.History[n-1].Magnitude).Str("evolution", string(next.History[n-1].Type))
	}
	ev.Msg("Profile updated")

	return next, nil
}

// Profile returns the stored profile for userID.
func (m *Manager) Profile(ctx context.Context, userID string) (*models.PalateProfile, error) {
	return m.store.GetProfile(ctx, userID)
}

// keyedMutex hands out one mutex per key and frees it when no goroutine
// holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
