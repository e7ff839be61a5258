// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/palate/internal/events"
	"github.com/tomtom215/palate/internal/learning"
	"github.com/tomtom215/palate/internal/models"
)

var (
	_ suture.Service = (*LearningService)(nil)
	_ suture.Service = (*EventRouterService)(nil)
	_ suture.Service = (*BadgerGCService)(nil)
)

type fakeRunner struct {
	cycles  atomic.Int32
	fail    bool
	trigger chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{trigger: make(chan struct{}, 1)}
}

func (f *fakeRunner) RunCycle(context.Context, bool) (*learning.Result, error) {
	f.cycles.Add(1)
	if f.fail {
		return nil, errors.New("store unavailable")
	}
	return &learning.Result{Outcome: learning.OutcomeSkipped}, nil
}

func (f *fakeRunner) Triggered() <-chan struct{} { return f.trigger }

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func serve(t *testing.T, svc suture.Service) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return cancel, errCh
}

func TestLearningService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      LearningServiceConfig
		fail     bool
		trigger  bool
		wantRuns int32
	}{
		{"runs on startup", LearningServiceConfig{Interval: time.Hour, RunOnStartup: true}, false, false, 1},
		{"runs on interval", LearningServiceConfig{Interval: 20 * time.Millisecond}, false, false, 2},
		{"runs on trigger", LearningServiceConfig{Interval: time.Hour}, false, true, 1},
		{"survives failures", LearningServiceConfig{Interval: 20 * time.Millisecond, RunOnStartup: true}, true, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := newFakeRunner()
			runner.fail = tt.fail
			cancel, errCh := serve(t, NewLearningService(runner, tt.cfg, zerolog.Nop()))
			if tt.trigger {
				runner.trigger <- struct{}{}
			}

			eventually(t, func() bool { return runner.cycles.Load() >= tt.wantRuns })
			cancel()
			if err := <-errCh; !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		})
	}
}

func TestLearningService_IdleWithoutCause(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	cancel, errCh := serve(t, NewLearningService(runner, LearningServiceConfig{Interval: time.Hour}, zerolog.Nop()))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-errCh
	if n := runner.cycles.Load(); n != 0 {
		t.Errorf("cycles = %d, want 0", n)
	}
}

func TestNewLearningService_DefaultInterval(t *testing.T) {
	t.Parallel()

	svc := NewLearningService(newFakeRunner(), LearningServiceConfig{}, zerolog.Nop())
	if svc.config.Interval != 24*time.Hour {
		t.Errorf("Interval = %v, want 24h", svc.config.Interval)
	}
	if svc.String() != "learning-service" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestEventRouterService_RestartsWithFreshRouter(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.DefaultBusConfig(), zerolog.Nop())
	defer bus.Close()

	var handled atomic.Int32
	consumer := events.Consumer{
		Name:  "count",
		Topic: events.TopicFeedbackRecorded,
		Handle: func(*message.Message) error {
			handled.Add(1)
			return nil
		},
	}
	svc := NewEventRouterService(events.DefaultRouterConfig(), bus, []events.Consumer{consumer}, zerolog.Nop())
	record := &models.InteractionRecord{ID: "r", UserID: "u", ItemID: "i", Rating: 5}

	for round := 1; round <= 2; round++ {
		base := handled.Load()
		cancel, errCh := serve(t, svc)
		// Publish until the new router has subscribed and handled one more.
		eventually(t, func() bool {
			if handled.Load() > base {
				return true
			}
			_ = bus.PublishFeedback(context.Background(), record)
			return false
		})
		cancel()
		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("round %d: Serve() = %v, want context.Canceled", round, err)
		}
	}
}

func TestEventRouterService_BadConsumer(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.DefaultBusConfig(), zerolog.Nop())
	defer bus.Close()
	svc := NewEventRouterService(events.DefaultRouterConfig(), bus, []events.Consumer{{Name: "broken"}}, zerolog.Nop())
	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() = nil, want build error")
	}
}

type fakeGC struct {
	interval atomic.Int64
}

func (f *fakeGC) RunGCLoop(ctx context.Context, interval time.Duration) error {
	f.interval.Store(int64(interval))
	<-ctx.Done()
	return ctx.Err()
}

func TestBadgerGCService(t *testing.T) {
	t.Parallel()

	gc := &fakeGC{}
	svc := NewBadgerGCService(gc, 5*time.Minute, zerolog.Nop())
	cancel, errCh := serve(t, svc)
	eventually(t, func() bool { return gc.interval.Load() != 0 })
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if time.Duration(gc.interval.Load()) != 5*time.Minute {
		t.Errorf("interval = %v", time.Duration(gc.interval.Load()))
	}
	if svc.String() != "badger-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
