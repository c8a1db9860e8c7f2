// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

/*
Package metrics provides Prometheus metrics collection and export for observability.

The package instruments the telemetry pipeline end to end:

  - Ingestion: accepted batches, persisted events by type, skipped events
    by reason, conversion signals
  - DuckDB query latency and errors
  - Metrics store merges, including counter regressions discarded by the
    monotonic merge guard
  - Engagement snapshot builds and degraded-mode fallbacks
  - API request latency, throughput and rate-limit rejections
  - Event bus publish/consume counts
  - WebSocket connections and fan-out drops
  - Summarizer circuit breaker state and call durations

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8411/metrics

All recording functions are safe for concurrent use. Label cardinality is
kept bounded: event types, topics and skip reasons come from fixed constant
sets, endpoint labels carry route patterns rather than raw paths, and no
subject or session identifiers ever appear as labels.
*/
package metrics
