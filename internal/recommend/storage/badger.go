// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	profileKeyPrefix     = "profile:"
	experienceKeyPrefix  = "exp:"
	feedbackKeyPrefix    = "fb:"
	performanceKeyPrefix = "perf:"
	snapshotKeyPrefix    = "snap:"
	similarityKeyPrefix  = "sim:"
	recommendKeyPrefix   = "rec:"
)

// Options configures the Badger database.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps all data in memory; used by tests and ephemeral runs.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is how often value log garbage collection runs. Zero
	// disables it.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// Badger implements every store interface over a single BadgerDB.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger
	now    func() time.Time
}

// OpenBadger opens (or creates) the database described by opts.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(opts Options, logger zerolog.Logger) (*Badger, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
		now:    time.Now,
	}, nil
}

// NewBadger wraps an already open database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadger(db *badger.DB, logger zerolog.Logger) *Badger {
	return &Badger{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
		now:    time.Now,
	}
}

// Close closes the database.
func (s *Badger) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Badger) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

// RunGC runs value log garbage collection until there is nothing left to
// rewrite or ctx is done.
func (s *Badger) RunGC(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				s.logger.Warn().Err(err).Msg("value log GC failed")
			}
			return
		}
	}
}

// RunGCLoop runs value log GC every interval until ctx is done.
func (s *Badger) RunGCLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunGC(ctx)
		}
	}
}

// invertedKey builds prefix + fixed-width (MaxInt64 - n) + suffix so that
// ascending key order is descending n. Negative n sorts as zero.
func invertedKey(prefix string, n int64, suffix string) []byte {
	if n < 0 {
		n = 0
	}
	key := fmt.Sprintf("%s%019d", prefix, math.MaxInt64-n)
	if suffix != "" {
		key += ":" + suffix
	}
	return []byte(key)
}

// putJSON marshals v and stores it under key, with ttl when positive.
func (s *Badger) putJSON(key []byte, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// getJSON loads key into v, returning models.ErrNotFound when absent.
func (s *Badger) getJSON(key []byte, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// scan walks every value under prefix in key order, decoding each into a
// fresh T. visit returns false to stop. Values that fail to decode are
// logged and skipped.
func scan[T any](ctx context.Context, s *Badger, prefix string, visit func(*T) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			v := new(T)
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, v)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(item.Key())).Msg("skipping undecodable record")
				continue
			}
			if !visit(v) {
				return nil
			}
		}
		return nil
	})
}

// count returns the number of keys under prefix without reading values.
func (s *Badger) count(prefix string) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Ensure Badger implements the store interfaces.
var (
	_ recommend.ProfileStore        = (*Badger)(nil)
	_ recommend.ExperienceStore     = (*Badger)(nil)
	_ recommend.FeedbackStore       = (*Badger)(nil)
	_ recommend.SimilarityCache     = (*Badger)(nil)
	_ recommend.RecommendationCache = (*Badger)(nil)
	_ recommend.PerformanceStore    = (*Badger)(nil)
	_ recommend.SnapshotStore       = (*Badger)(nil)
)
