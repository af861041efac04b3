// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*RotationService)(nil)
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*WebSocketHubService)(nil)
	_ suture.Service = (*EventRouterService)(nil)
	_ suture.Service = (*LedgerGCService)(nil)
)

type fakeManager struct {
	startErr error
	stopErr  error
	starts   atomic.Int32
	stops    atomic.Int32
	started  chan struct{}
}

func newFakeManager() *fakeManager {
	return &fakeManager{started: make(chan struct{}, 1)}
}

func (f *fakeManager) Start(ctx context.Context) error {
	f.starts.Add(1)
	if f.startErr != nil {
		return f.startErr
	}
	select {
	case f.started <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeManager) Stop() error {
	f.stops.Add(1)
	return f.stopErr
}

type fakeServer struct {
	listenErr   error
	shutdownErr error
	listening   chan struct{}
	stopCh      chan struct{}
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{listening: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	select {
	case f.listening <- struct{}{}:
	default:
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopCh
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	close(f.stopCh)
	return f.shutdownErr
}

type fakeCollector struct {
	err   error
	calls atomic.Int32
}

func (f *fakeCollector) RunGC() error {
	f.calls.Add(1)
	return f.err
}

type runFunc func(ctx context.Context) error

func (r runFunc) Run(ctx context.Context) error            { return r(ctx) }
func (r runFunc) RunWithContext(ctx context.Context) error { return r(ctx) }

func serveAsync(svc suture.Service, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestServiceNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		svc  interface{ String() string }
		want string
	}{
		{NewRotationService(newFakeManager()), "rotation-manager"},
		{NewHTTPServerService(newFakeServer(), time.Second), "http-server"},
		{NewWebSocketHubService(runFunc(nil)), "websocket-hub"},
		{NewEventRouterService(runFunc(nil)), "event-router"},
		{NewLedgerGCService(&fakeCollector{}, time.Minute), "ledger-gc"},
	}
	for _, tt := range tests {
		if got := tt.svc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRotationService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("start then stop on cancel", func(t *testing.T) {
		t.Parallel()
		mgr := newFakeManager()
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewRotationService(mgr), ctx)

		<-mgr.started
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if mgr.starts.Load() != 1 || mgr.stops.Load() != 1 {
			t.Errorf("starts=%d stops=%d, want 1/1", mgr.starts.Load(), mgr.stops.Load())
		}
	})

	t.Run("start failure", func(t *testing.T) {
		t.Parallel()
		mgr := newFakeManager()
		mgr.startErr = errors.New("already running")

		err := NewRotationService(mgr).Serve(context.Background())
		if !errors.Is(err, mgr.startErr) {
			t.Errorf("Serve() = %v, want wrapped start error", err)
		}
		if mgr.stops.Load() != 0 {
			t.Error("Stop called after failed Start")
		}
	})

	t.Run("stop failure", func(t *testing.T) {
		t.Parallel()
		mgr := newFakeManager()
		mgr.stopErr = errors.New("not running")
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewRotationService(mgr), ctx)

		<-mgr.started
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, mgr.stopErr) {
			t.Errorf("Serve() = %v, want wrapped stop error", err)
		}
	})
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("default timeout", func(t *testing.T) {
		t.Parallel()
		for _, d := range []time.Duration{0, -time.Second} {
			if got := NewHTTPServerService(newFakeServer(), d).shutdownTimeout; got != 10*time.Second {
				t.Errorf("shutdownTimeout(%v) = %v, want 10s", d, got)
			}
		}
	})

	t.Run("graceful shutdown", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer()
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewHTTPServerService(srv, time.Second), ctx)

		<-srv.listening
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer()
		srv.listenErr = errors.New("bind: address already in use")

		err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
		if !errors.Is(err, srv.listenErr) {
			t.Errorf("Serve() = %v, want wrapped listen error", err)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer()
		srv.shutdownErr = errors.New("shutdown timeout")
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewHTTPServerService(srv, time.Second), ctx)

		<-srv.listening
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, srv.shutdownErr) {
			t.Errorf("Serve() = %v, want wrapped shutdown error", err)
		}
	})
}

func TestWebSocketHubService_Delegates(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	hub := runFunc(func(ctx context.Context) error {
		called.Store(true)
		<-ctx.Done()
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(NewWebSocketHubService(hub), ctx)
	cancel()

	if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if !called.Load() {
		t.Error("RunWithContext was not called")
	}
}

func TestEventRouterService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("clean close reports cancellation", func(t *testing.T) {
		t.Parallel()
		router := runFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewEventRouterService(router), ctx)
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})

	t.Run("run failure", func(t *testing.T) {
		t.Parallel()
		runErr := errors.New("router is already running")
		router := runFunc(func(ctx context.Context) error { return runErr })

		err := NewEventRouterService(router).Serve(context.Background())
		if !errors.Is(err, runErr) {
			t.Errorf("Serve() = %v, want wrapped run error", err)
		}
	})
}

func TestLedgerGCService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("default interval", func(t *testing.T) {
		t.Parallel()
		if got := NewLedgerGCService(&fakeCollector{}, 0).interval; got != 10*time.Minute {
			t.Errorf("interval = %v, want 10m", got)
		}
	})

	for _, gcErr := range []error{nil, errors.New("value log locked")} {
		name := "success"
		if gcErr != nil {
			name = "failure keeps running"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			collector := &fakeCollector{err: gcErr}
			ctx, cancel := context.WithCancel(context.Background())
			errCh := serveAsync(NewLedgerGCService(collector, 5*time.Millisecond), ctx)

			deadline := time.Now().Add(2 * time.Second)
			for collector.calls.Load() < 2 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			cancel()

			if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
			if collector.calls.Load() < 2 {
				t.Errorf("RunGC calls = %d, want at least 2", collector.calls.Load())
			}
		})
	}
}
