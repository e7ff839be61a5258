// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64 `koanf:"failure_threshold"`

	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64 `koanf:"failure_decay"`

	// FailureBackoff is the wait once the threshold is exceeded.
	FailureBackoff time.Duration `koanf:"failure_backoff"`

	// ShutdownTimeout bounds how long each service may take to stop.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultTreeConfig.
func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// SupervisorTree is the process supervision hierarchy:
//
//	palate
//	├── data-layer      storage maintenance (Badger value-log GC)
//	├── learning-layer  event router, learning scheduler
//	└── api-layer       HTTP server
//
// Each layer counts failures independently, so a crashing learning cycle
// never takes the API down.
type SupervisorTree struct {
	root     *suture.Supervisor
	data     *suture.Supervisor
	learning *suture.Supervisor
	api      *suture.Supervisor
	logger   *slog.Logger
	config   TreeConfig
}

// NewSupervisorTree creates the tree. Zero config fields take defaults.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	// Children inherit the EventHook from the root when added.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	t := &SupervisorTree{
		root:     suture.New("palate", rootSpec),
		data:     suture.New("data-layer", childSpec),
		learning: suture.New("learning-layer", childSpec),
		api:      suture.New("api-layer", childSpec),
		logger:   logger,
		config:   config,
	}
	t.root.Add(t.data)
	t.root.Add(t.learning)
	t.root.Add(t.api)
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddDataService adds a storage maintenance service.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.data.Add(svc)
}

// AddLearningService adds an event or learning service.
func (t *SupervisorTree) AddLearningService(svc suture.Service) suture.ServiceToken {
	return t.learning.Add(svc)
}

// AddAPIService adds the HTTP server.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// RemoveAndWait stops a service and waits up to timeout for it to exit.
func (t *SupervisorTree) RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error {
	return t.root.RemoveAndWait(token, timeout)
}
