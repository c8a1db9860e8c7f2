// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package aggregate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/metrics"
	"github.com/admitlens/admitlens/internal/models"
)

// SummaryResult is the narrative produced by the external summarizer.
type SummaryResult struct {
	Narrative  string   `json:"narrative"`
	Highlights []string `json:"highlights"`
}

// Summarizer generates a narrative for an engagement snapshot. The
// builder treats any error as "use the template fallback".
type Summarizer interface {
	Summarize(ctx context.Context, snap *models.EngagementSnapshot) (SummaryResult, error)
}

// HTTPSummarizer calls the external narrative service. A circuit
// breaker stops hammering a down service, and a rate limiter keeps the
// dashboard from burning the service's quota during bulk refreshes.
type HTTPSummarizer struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[SummaryResult]
	limiter *rate.Limiter
}

// NewHTTPSummarizer builds the summarizer client from config. Returns
// nil when the summarizer is disabled so callers can pass the result
// straight to NewBuilder.
func NewHTTPSummarizer(cfg config.SummarizerConfig) *HTTPSummarizer {
	if !cfg.Enabled {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxFail := cfg.BreakerMaxFail
	if maxFail == 0 {
		maxFail = 5
	}
	cooloff := cfg.BreakerCooloff
	if cooloff <= 0 {
		cooloff = 30 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 30
	}

	log := logging.WithComponent("summarizer")
	settings := gobreaker.Settings{
		Name:    "summarizer",
		Timeout: cooloff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Summarizer circuit breaker state change")
			metrics.SetCircuitBreakerState(name, int(to))
		},
	}

	return &HTTPSummarizer{
		url:     cfg.URL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[SummaryResult](settings),
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60), perMin),
	}
}

// Summarize POSTs the snapshot and decodes the narrative response.
func (s *HTTPSummarizer) Summarize(ctx context.Context, snap *models.EngagementSnapshot) (SummaryResult, error) {
	if !s.limiter.Allow() {
		metrics.RecordSummarizerCall(0, "rate_limited")
		return SummaryResult{}, fmt.Errorf("summarizer rate limit exceeded")
	}

	start := time.Now()
	result, err := s.breaker.Execute(func() (SummaryResult, error) {
		return s.call(ctx, snap)
	})
	if err != nil {
		metrics.RecordSummarizerCall(time.Since(start), "error")
		return SummaryResult{}, err
	}
	metrics.RecordSummarizerCall(time.Since(start), "success")
	return result, nil
}

func (s *HTTPSummarizer) call(ctx context.Context, snap *models.EngagementSnapshot) (SummaryResult, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return SummaryResult{}, fmt.Errorf("build summarizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("call summarizer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return SummaryResult{}, fmt.Errorf("summarizer returned status %d", resp.StatusCode)
	}

	var result SummaryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SummaryResult{}, fmt.Errorf("decode summarizer response: %w", err)
	}
	if result.Narrative == "" {
		return SummaryResult{}, fmt.Errorf("summarizer returned empty narrative")
	}
	return result, nil
}
