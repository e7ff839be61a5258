// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinRequests = 4
	cfg.OpenTimeout = time.Hour
	return cfg
}

func TestDo_NilBoundaryPassesThrough(t *testing.T) {
	t.Parallel()

	got, err := Do(context.Background(), nil, "get", func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("Do() = %d, %v", got, err)
	}
}

func TestDo_TripsOnFailures(t *testing.T) {
	t.Parallel()

	b := New("test-trip", testConfig())
	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		if err := Run(context.Background(), b, "put", func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	err := Run(context.Background(), b, "put", func(context.Context) error {
		t.Fatal("call should have been rejected")
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if b.State() != "open" {
		t.Errorf("State() = %s, want open", b.State())
	}
}

func TestDo_NotFoundDoesNotTrip(t *testing.T) {
	t.Parallel()

	b := New("test-notfound", testConfig())
	for i := 0; i < 20; i++ {
		_, err := Do(context.Background(), b, "get", func(context.Context) (*models.PalateProfile, error) {
			return nil, models.ErrNotFound
		})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State() = %s, want closed", b.State())
	}
}

func TestDo_AppliesTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	b := New("test-timeout", cfg)

	err := Run(context.Background(), b, "slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}
