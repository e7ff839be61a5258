// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds configuration for the consumer router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	// Retry configuration
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Consumer is a named handler on one topic.
type Consumer struct {
	Name   string
	Topic  string
	Handle message.NoPublishHandlerFunc
}

// Router runs consumers against a bus with panic recovery and retry.
// A Router runs once; build a new one to restart.
type Router struct {
	router *message.Router
	names  []string
}

// NewRouter creates a router and registers consumers on the bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(cfg RouterConfig, bus *Bus, consumers []Consumer, logger zerolog.Logger) (*Router, error) {
	wlog := watermillLogger(logger.With().Str("component", "event_router").Logger())
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wlog)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: recover panics, then retry with backoff.
	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wlog,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	r := &Router{router: wmRouter}
	for _, c := range consumers {
		if c.Name == "" || c.Topic == "" || c.Handle == nil {
			return nil, fmt.Errorf("consumer %q: name, topic and handler are required", c.Name)
		}
		wmRouter.AddConsumerHandler(c.Name, c.Topic, bus.Subscriber(), c.Handle)
		r.names = append(r.names, c.Name)
	}
	return r, nil
}

// Run blocks until ctx is canceled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel that is closed once all handlers subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for handlers.
func (r *Router) Close() error {
	return r.router.Close()
}

// Consumers returns the registered consumer names.
func (r *Router) Consumers() []string {
	return append([]string(nil), r.names...)
}
