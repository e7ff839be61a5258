// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/learning"
)

// LearningRunner is the part of *learning.Pipeline the scheduler drives.
type LearningRunner interface {
	RunCycle(ctx context.Context, force bool) (*learning.Result, error)
	Triggered() <-chan struct{}
}

// LearningServiceConfig holds the learning schedule.
type LearningServiceConfig struct {
	// Interval between scheduled cycles. Non-positive means 24h.
	Interval time.Duration

	// RunOnStartup starts a cycle as soon as the service starts.
	RunOnStartup bool
}

// LearningService schedules learning cycles: once at startup if
// configured, every Interval, and whenever the runner is triggered.
// A cycle failure is logged and never restarts the service.
type LearningService struct {
	runner LearningRunner
	config LearningServiceConfig
	logger zerolog.Logger
}

// NewLearningService creates the learning scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLearningService(runner LearningRunner, cfg LearningServiceConfig, logger zerolog.Logger) *LearningService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &LearningService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "learning").Logger(),
	}
}

// Serve implements suture.Service.
func (s *LearningService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("learning service starting")

	if s.config.RunOnStartup {
		s.run(ctx, "startup")
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("learning service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx, "schedule")
		case <-s.runner.Triggered():
			s.run(ctx, "trigger")
		}
	}
}

func (s *LearningService) run(ctx context.Context, cause string) {
	res, err := s.runner.RunCycle(ctx, false)
	if err != nil {
		s.logger.Warn().Err(err).Str("cause", cause).Msg("learning cycle failed")
		return
	}
	s.logger.Debug().
		Str("cause", cause).
		Str("outcome", string(res.Outcome)).
		Msg("learning cycle done")
}

func (s *LearningService) String() string {
	return "learning-service"
}
