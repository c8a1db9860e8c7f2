// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/admitlens/admitlens/internal/models"
)

// mockHTTPServer is a test double for the HTTPServer interface.
type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	listenCount   atomic.Int32
	shutdownCount atomic.Int32
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenCount.Add(1)
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerServiceImplementsSuture(t *testing.T) {
	var _ suture.Service = NewHTTPServerService(newMockHTTPServer(), time.Second)
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	mock := newMockHTTPServer()
	svc := NewHTTPServerService(mock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// Give ListenAndServe a moment to start before canceling
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := mock.shutdownCount.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	mock := newMockHTTPServer()
	mock.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(mock, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, mock.listenErr) {
		t.Fatalf("Serve() = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceName(t *testing.T) {
	if got := NewHTTPServerService(newMockHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want %q", got, "http-server")
	}
}

type mockHub struct {
	runCount atomic.Int32
}

func (m *mockHub) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubServiceDelegates(t *testing.T) {
	mock := &mockHub{}
	svc := NewWebSocketHubService(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() = %v, want context.Canceled", err)
	}
	if got := mock.runCount.Load(); got != 1 {
		t.Errorf("RunWithContext called %d times, want 1", got)
	}
	if got := svc.String(); got != "websocket-hub" {
		t.Errorf("String() = %q, want %q", got, "websocket-hub")
	}
}

type mockRouter struct {
	runErr   error
	runCount atomic.Int32
}

func (m *mockRouter) Run(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestBusRouterServicePropagatesFailure(t *testing.T) {
	mock := &mockRouter{runErr: errors.New("handler panicked")}
	svc := NewBusRouterService(mock)

	if err := svc.Serve(context.Background()); !errors.Is(err, mock.runErr) {
		t.Fatalf("Serve() = %v, want router error", err)
	}
	if got := svc.String(); got != "bus-router" {
		t.Errorf("String() = %q, want %q", got, "bus-router")
	}
}

type mockStatsSource struct {
	subjects    []models.SubjectActivity
	sessions    int
	subjectsErr error
}

func (m *mockStatsSource) Subjects() ([]models.SubjectActivity, error) {
	if m.subjectsErr != nil {
		return nil, m.subjectsErr
	}
	return m.subjects, nil
}

func (m *mockStatsSource) SessionCount() (int, error) {
	return m.sessions, nil
}

type mockBroadcaster struct {
	calls    atomic.Int32
	subjects atomic.Int32
	sessions atomic.Int32
}

func (m *mockBroadcaster) BroadcastStatsUpdate(totalSubjects, activeSessions int) {
	m.calls.Add(1)
	m.subjects.Store(int32(totalSubjects))
	m.sessions.Store(int32(activeSessions))
}

func TestStatsBroadcastServicePushesCounts(t *testing.T) {
	source := &mockStatsSource{
		subjects: []models.SubjectActivity{{SubjectID: "fam-1"}, {SubjectID: "fam-2"}},
		sessions: 5,
	}
	hub := &mockBroadcaster{}
	svc := NewStatsBroadcastService(source, hub, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() = %v, want context.DeadlineExceeded", err)
	}

	if hub.calls.Load() == 0 {
		t.Fatal("expected at least one broadcast")
	}
	if got := hub.subjects.Load(); got != 2 {
		t.Errorf("broadcast subjects = %d, want 2", got)
	}
	if got := hub.sessions.Load(); got != 5 {
		t.Errorf("broadcast sessions = %d, want 5", got)
	}
}

func TestStatsBroadcastServiceSkipsFailedReads(t *testing.T) {
	source := &mockStatsSource{subjectsErr: errors.New("store closed")}
	hub := &mockBroadcaster{}
	svc := NewStatsBroadcastService(source, hub, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	if got := hub.calls.Load(); got != 0 {
		t.Errorf("broadcast called %d times during store failure, want 0", got)
	}
}
