// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package tracker

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/models"
)

// BestEffortTransport delivers one flush payload. The contract is fire
// and forget: Send must not block page teardown, a nil return is not a
// delivery guarantee, and a non-nil error means only that a failure was
// detected synchronously (e.g. connection refused). Callers never run a
// retry loop; the page may already be gone.
type BestEffortTransport interface {
	Send(payload []byte) error
}

// FlushReason identifies what triggered a flush.
type FlushReason string

// Flush triggers.
const (
	FlushHeartbeat  FlushReason = "heartbeat"
	FlushPageHidden FlushReason = "page_hidden"
	FlushUnload     FlushReason = "unload"
	FlushManual     FlushReason = "manual"
)

// DefaultMaxNormalQueue caps the normal-priority lane. The oldest
// normal event is dropped on overflow; high-priority events are never
// capped.
const DefaultMaxNormalQueue = 256

// queuedEvent wraps an event with its retry state. High-priority events
// that fail delivery are re-queued exactly once.
type queuedEvent struct {
	event   models.Event
	retried bool
}

// EventBuffer holds the two priority lanes between flushes. Mutation is
// only ever performed under the session lock; the drain uses a swap so
// that events enqueued mid-flush land in the fresh queue rather than
// being lost.
type EventBuffer struct {
	normal    []queuedEvent
	high      []queuedEvent
	maxNormal int

	droppedNormal int
}

// NewEventBuffer creates a buffer with the given normal-lane cap.
func NewEventBuffer(maxNormal int) *EventBuffer {
	if maxNormal <= 0 {
		maxNormal = DefaultMaxNormalQueue
	}
	return &EventBuffer{maxNormal: maxNormal}
}

// Enqueue appends an event to its priority lane. It never triggers
// network I/O.
func (b *EventBuffer) Enqueue(e models.Event) {
	if e.HighPriority() {
		b.high = append(b.high, queuedEvent{event: e})
		return
	}
	if len(b.normal) >= b.maxNormal {
		b.normal = b.normal[1:]
		b.droppedNormal++
	}
	b.normal = append(b.normal, queuedEvent{event: e})
}

// Drain removes and returns all queued events, high-priority lane
// first. The internal slices are replaced, not cleared, so a
// re-entrant Enqueue cannot lose events.
func (b *EventBuffer) Drain() (high, normal []queuedEvent) {
	high, normal = b.high, b.normal
	b.high, b.normal = nil, nil
	return high, normal
}

// Requeue puts not-yet-retried high-priority events back at the front
// of the high lane for the next flush. Events already retried once are
// dropped.
func (b *EventBuffer) Requeue(high []queuedEvent) (requeued int) {
	keep := make([]queuedEvent, 0, len(high))
	for _, q := range high {
		if q.retried {
			continue
		}
		q.retried = true
		keep = append(keep, q)
	}
	b.high = append(keep, b.high...)
	return len(keep)
}

// Len returns the total number of queued events.
func (b *EventBuffer) Len() int { return len(b.high) + len(b.normal) }

// DroppedNormal returns how many normal events overflow has discarded.
func (b *EventBuffer) DroppedNormal() int { return b.droppedNormal }

// Dispatcher flushes the buffer to the ingestion boundary. A heartbeat
// timer drives periodic flushes; page-hide, unload, and explicit
// requests flush synchronously. Each flush attempts delivery exactly
// once; on synchronous failure the high-priority events are re-queued
// for the next flush and normal events are dropped.
type Dispatcher struct {
	buffer    *EventBuffer
	transport BestEffortTransport
	summary   func() *models.SessionInfo

	flushes   int
	lastError error
}

// NewDispatcher creates a dispatcher. summary provides the rolled-up
// session info attached to every non-empty batch; it may return nil.
func NewDispatcher(buffer *EventBuffer, transport BestEffortTransport, summary func() *models.SessionInfo) *Dispatcher {
	return &Dispatcher{buffer: buffer, transport: transport, summary: summary}
}

// Flush drains both lanes and attempts one delivery. A flush with zero
// drained events is a no-op: empty batches are never sent.
func (d *Dispatcher) Flush(reason FlushReason) error {
	high, normal := d.buffer.Drain()
	if len(high) == 0 && len(normal) == 0 {
		return nil
	}

	events := make([]models.Event, 0, len(high)+len(normal))
	for _, q := range high {
		events = append(events, q.event)
	}
	for _, q := range normal {
		events = append(events, q.event)
	}

	batch := models.TrackBatch{Events: events, SessionInfo: d.summary()}
	payload, err := json.Marshal(&batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	d.flushes++
	if err := d.transport.Send(payload); err != nil {
		d.lastError = err
		d.buffer.Requeue(high)
		return fmt.Errorf("flush (%s): %w", reason, err)
	}
	d.lastError = nil
	return nil
}

// Flushes returns how many non-empty flushes were attempted.
func (d *Dispatcher) Flushes() int { return d.flushes }

// HeartbeatInterval computes the effective heartbeat period: the base
// interval, halved while the conversion probability is high. The
// interval always converges back to base once the condition clears.
func HeartbeatInterval(base time.Duration, conversionProbability int) time.Duration {
	if conversionProbability >= 70 {
		return base / 2
	}
	return base
}
