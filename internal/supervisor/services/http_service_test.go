// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown unless listenErr is set.
type fakeServer struct {
	listenErr   error
	shutdownErr error

	started   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	listens   atomic.Int32
	shutdowns atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 8), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.stopOnce.Do(func() { close(f.stop) })
	return f.shutdownErr
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	t.Parallel()

	for _, timeout := range []time.Duration{0, -time.Second} {
		if got := NewHTTPServerService(newFakeServer(), timeout).shutdownTimeout; got != 10*time.Second {
			t.Errorf("timeout %v -> %v, want 10s", timeout, got)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), 3*time.Second).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("drains on cancellation", func(t *testing.T) {
		t.Parallel()
		server := newFakeServer()
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", server.shutdowns.Load())
		}
	})

	t.Run("listener failure is returned", func(t *testing.T) {
		t.Parallel()
		bindErr := errors.New("bind: address already in use")
		server := newFakeServer()
		server.listenErr = bindErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want %v", err, bindErr)
		}
	})

	t.Run("shutdown failure is returned", func(t *testing.T) {
		t.Parallel()
		drainErr := errors.New("drain timeout")
		server := newFakeServer()
		server.shutdownErr = drainErr
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		if err := <-errCh; !errors.Is(err, drainErr) {
			t.Errorf("Serve() = %v, want %v", err, drainErr)
		}
	})
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	t.Parallel()

	server := newFakeServer()
	sup := suture.New("test", suture.Spec{FailureBackoff: 10 * time.Millisecond, Timeout: 2 * time.Second})
	sup.Add(NewHTTPServerService(server, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)
	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	cancel()
	<-errCh

	if server.shutdowns.Load() < 1 {
		t.Error("Shutdown was not called")
	}
}
