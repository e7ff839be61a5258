// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package breaker guards calls that cross the storage boundary with a
// per-call timeout and a circuit breaker.
//
// The numeric core never retries or times out on its own. Everything that
// talks to Badger or Redis goes through a Boundary so a slow or failing
// store surfaces as a fast error the engine can map to neutral defaults.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Config tunes a Boundary.
type Config struct {
	// Timeout bounds each call. Zero disables the per-call timeout.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval resets the failure counts while closed.
	Interval time.Duration `koanf:"interval"`

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration `koanf:"open_timeout"`

	// MinRequests is the sample size needed before the breaker can trip.
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio trips the breaker once reached.
	FailureRatio float64 `koanf:"failure_ratio"`
}

// DefaultConfig returns production defaults: trip at 60% failures over at
// least 10 calls, probe again after 30 seconds.
func DefaultConfig() Config {
	return Config{
		Timeout:      2 * time.Second,
		MaxRequests:  3,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Boundary wraps store calls. A nil *Boundary passes calls straight through.
type Boundary struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
}

// New creates a Boundary named name.
func New(name string, cfg Config) *Boundary {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_ratio", ratio).Msg("Opening circuit")
				return true
			}
			return false
		},
		// Absent records and caller cancellation say nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &Boundary{name: name, timeout: cfg.Timeout, cb: cb}
}

// Name returns the boundary name.
func (b *Boundary) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// State returns the breaker state as a string.
func (b *Boundary) State() string {
	if b == nil {
		return "closed"
	}
	return stateToString(b.cb.State())
}

// Do runs fn under the boundary's timeout and breaker.
func Do[T any](ctx context.Context, b *Boundary, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn(ctx)
	}

	result, err := b.cb.Execute(func() (any, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return zero, fmt.Errorf("%s %s: %w", b.name, op, ErrOpen)
	case err != nil:
		if !errors.Is(err, models.ErrNotFound) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return zero, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s %s: unexpected result type %T", b.name, op, result)
	}
	return typed, nil
}

// Run is Do for calls with no result.
func Run(ctx context.Context, b *Boundary, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, b, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
