// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/events"
)

// EventRouterService runs the event consumers. A watermill router cannot
// be restarted, so every Serve builds a new one.
type EventRouterService struct {
	config    events.RouterConfig
	bus       *events.Bus
	consumers []events.Consumer
	logger    zerolog.Logger
}

// NewEventRouterService creates the event router service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventRouterService(cfg events.RouterConfig, bus *events.Bus, consumers []events.Consumer, logger zerolog.Logger) *EventRouterService {
	return &EventRouterService{
		config:    cfg,
		bus:       bus,
		consumers: consumers,
		logger:    logger.With().Str("service", "event-router").Logger(),
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := events.NewRouter(s.config, s.bus, s.consumers, s.logger)
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	s.logger.Info().Strs("consumers", router.Consumers()).Msg("event router starting")

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

func (s *EventRouterService) String() string {
	return "event-router"
}
