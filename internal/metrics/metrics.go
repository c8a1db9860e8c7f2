// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	IngestBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Total number of tracking batches accepted",
		},
	)

	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of events persisted, by event type",
		},
		[]string{"event_type"},
	)

	IngestEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_dropped_total",
			Help: "Total number of events skipped during ingestion",
		},
		[]string{"reason"}, // "invalid", "payload", "persist"
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of events per tracking batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
		},
	)

	ConversionSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_signals_total",
			Help: "Total number of conversion-signal events ingested",
		},
		[]string{"event_type"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Metrics Store (Badger) Metrics
	StoreMergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metrics_store_merges_total",
			Help: "Total number of session summary merges applied",
		},
	)

	StoreRegressionsIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metrics_store_regressions_ignored_total",
			Help: "Total number of counter regressions discarded by monotonic merge",
		},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metrics_store_op_duration_seconds",
			Help:    "Duration of metrics store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Aggregation Metrics
	SnapshotBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engagement_snapshot_build_duration_seconds",
			Help:    "Duration of engagement snapshot builds in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	SnapshotsDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_snapshots_degraded_total",
			Help: "Total number of snapshots served from the fallback store after a query failure",
		},
	)

	NarrativesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narratives_generated_total",
			Help: "Total number of narratives generated",
		},
		[]string{"source"}, // "summarizer", "template", "canned"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Event Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of messages published to the event bus",
		},
		[]string{"topic"},
	)

	BusMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_consumed_total",
			Help: "Total number of messages consumed from the event bus",
		},
		[]string{"topic"},
	)

	BusPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_publish_errors_total",
			Help: "Total number of event bus publish failures",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped on slow clients",
		},
	)

	// Summarizer Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	SummarizerCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarizer_call_duration_seconds",
			Help:    "Duration of narrative summarizer calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngestBatch records an accepted tracking batch and its size
func RecordIngestBatch(eventCount int) {
	IngestBatchesTotal.Inc()
	IngestBatchSize.Observe(float64(eventCount))
}

// RecordEventPersisted records a persisted event by type
func RecordEventPersisted(eventType string) {
	IngestEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordEventDropped records a skipped event with its skip reason
func RecordEventDropped(reason string) {
	IngestEventsDropped.WithLabelValues(reason).Inc()
}

// RecordConversionSignal records an ingested conversion-signal event
func RecordConversionSignal(eventType string) {
	ConversionSignalsTotal.WithLabelValues(eventType).Inc()
}

// RecordStoreMerge records a session summary merge, noting whether the
// monotonic guard discarded a counter regression
func RecordStoreMerge(regressed bool) {
	StoreMergesTotal.Inc()
	if regressed {
		StoreRegressionsIgnored.Inc()
	}
}

// RecordStoreOp records a metrics store operation duration
func RecordStoreOp(operation string, duration time.Duration) {
	StoreOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSnapshotBuild records an engagement snapshot build
func RecordSnapshotBuild(duration time.Duration, degraded bool) {
	SnapshotBuildDuration.Observe(duration.Seconds())
	if degraded {
		SnapshotsDegraded.Inc()
	}
}

// RecordNarrative records a generated narrative by its source
func RecordNarrative(source string) {
	NarrativesGenerated.WithLabelValues(source).Inc()
}

// RecordBusPublish records a bus publish attempt
func RecordBusPublish(topic string, err error) {
	if err != nil {
		BusPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	BusMessagesPublished.WithLabelValues(topic).Inc()
}

// RecordBusConsume records a consumed bus message
func RecordBusConsume(topic string) {
	BusMessagesConsumed.WithLabelValues(topic).Inc()
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetCircuitBreakerState updates the breaker state gauge
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordSummarizerCall records one summarizer round trip through the breaker
func RecordSummarizerCall(duration time.Duration, result string) {
	SummarizerCallDuration.Observe(duration.Seconds())
	CircuitBreakerRequests.WithLabelValues("summarizer", result).Inc()
}
