// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector is satisfied by *storage.Badger.
type GarbageCollector interface {
	RunGCLoop(ctx context.Context, interval time.Duration) error
}

// BadgerGCService reclaims Badger value-log space on an interval.
type BadgerGCService struct {
	gc       GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewBadgerGCService creates the GC service. A non-positive interval
// disables collection; the service then idles until shutdown.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerGCService(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *BadgerGCService {
	return &BadgerGCService{
		gc:       gc,
		interval: interval,
		logger:   logger.With().Str("service", "badger-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	s.logger.Debug().Dur("interval", s.interval).Msg("badger gc starting")
	return s.gc.RunGCLoop(ctx, s.interval)
}

func (s *BadgerGCService) String() string {
	return "badger-gc"
}
