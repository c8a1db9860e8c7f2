// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/models"
)

func summarizerConfig(url string) config.SummarizerConfig {
	return config.SummarizerConfig{
		Enabled:        true,
		URL:            url,
		Timeout:        2 * time.Second,
		RequestsPerMin: 600,
		BreakerMaxFail: 3,
		BreakerCooloff: time.Minute,
	}
}

func TestHTTPSummarizerDisabled(t *testing.T) {
	if s := NewHTTPSummarizer(config.SummarizerConfig{Enabled: false}); s != nil {
		t.Fatal("disabled summarizer should be nil")
	}
}

func TestHTTPSummarizerSuccess(t *testing.T) {
	var received models.EngagementSnapshot
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SummaryResult{
			Narrative:  "Strong interest in the campus tour.",
			Highlights: []string{"Watched the full tour video"},
		})
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(summarizerConfig(srv.URL))
	snap := &models.EngagementSnapshot{SubjectID: "INQ-1", HasSignals: true, LeadScore: 60}

	result, err := s.Summarize(context.Background(), snap)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Narrative != "Strong interest in the campus tour." {
		t.Errorf("Narrative = %q", result.Narrative)
	}
	if len(result.Highlights) != 1 {
		t.Errorf("Highlights = %v", result.Highlights)
	}
	if received.SubjectID != "INQ-1" {
		t.Errorf("server saw snapshot for %q, want INQ-1", received.SubjectID)
	}
}

func TestHTTPSummarizerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(summarizerConfig(srv.URL))
	if _, err := s.Summarize(context.Background(), &models.EngagementSnapshot{}); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestHTTPSummarizerEmptyNarrativeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SummaryResult{})
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(summarizerConfig(srv.URL))
	if _, err := s.Summarize(context.Background(), &models.EngagementSnapshot{}); err == nil {
		t.Fatal("expected error on empty narrative")
	}
}

func TestHTTPSummarizerBreakerOpens(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(summarizerConfig(srv.URL))
	snap := &models.EngagementSnapshot{SubjectID: "INQ-1"}

	for i := 0; i < 5; i++ {
		_, _ = s.Summarize(context.Background(), snap)
	}

	// After three consecutive failures the breaker opens and stops
	// reaching the server.
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3 before breaker opened", got)
	}
}

func TestHTTPSummarizerRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SummaryResult{Narrative: "ok"})
	}))
	defer srv.Close()

	cfg := summarizerConfig(srv.URL)
	cfg.RequestsPerMin = 1
	s := NewHTTPSummarizer(cfg)

	if _, err := s.Summarize(context.Background(), &models.EngagementSnapshot{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := s.Summarize(context.Background(), &models.EngagementSnapshot{}); err == nil {
		t.Fatal("expected second call to be rate limited")
	}
}
