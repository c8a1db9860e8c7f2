// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

/*
Package middleware provides HTTP middleware for the AdmitLens API.

The middleware here is router-agnostic, written against http.HandlerFunc
and bridged into chi inside internal/api:

  - RequestID: X-Request-ID propagation plus logging context with
    request and correlation IDs
  - PrometheusMetrics: per-request counters, latency histograms and the
    active-request gauge
  - Compression: pooled gzip response compression, skipping WebSocket
    upgrades

CORS, rate limiting and authentication live in internal/api since they
depend on router configuration and the auth layer.
*/
package middleware
