// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// HTTPTransport posts flush payloads to an ingestion endpoint. It is
// the BestEffortTransport used outside the browser (the session
// simulator and integration tests); a short client timeout keeps Send
// from blocking teardown.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport creates a transport posting to url. A zero timeout
// defaults to 5 seconds.
func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPTransport{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send attempts one delivery. Any transport error or non-2xx status is
// reported as a synchronous failure; the caller re-queues high-priority
// events and moves on. There is no retry loop here.
func (t *HTTPTransport) Send(payload []byte) error {
	resp, err := t.client.Post(t.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post batch: status %d", resp.StatusCode)
	}
	return nil
}
