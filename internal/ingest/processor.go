// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/admitlens/admitlens/internal/bus"
	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/metrics"
	"github.com/admitlens/admitlens/internal/models"
)

var validate = validator.New()

// ErrBatchTooLarge is returned when a batch exceeds the configured
// event limit. The whole batch is rejected so the client retries with
// its normal flush cadence instead of silently losing the tail.
var ErrBatchTooLarge = errors.New("batch exceeds event limit")

// Drop reasons reported to metrics
const (
	dropReasonInvalid = "invalid"
	dropReasonPayload = "payload"
	dropReasonPersist = "persist"
)

// EventInserter persists derived event rows. *EventStore satisfies it;
// tests substitute a stub so they run without a DuckDB file.
type EventInserter interface {
	InsertEvents(ctx context.Context, events []StoredEvent) error
}

// Processor runs the ingestion pipeline for one tracking batch:
// validate, derive contributions, persist events, merge the session
// summary, then announce the batch on the bus. Malformed events are
// skipped, never fatal, because trackers in old browser sessions keep
// sending whatever shape they were loaded with.
type Processor struct {
	events  EventInserter
	store   *MetricsStore
	bus     *bus.Bus
	cfg     config.IngestConfig
	nowFunc func() time.Time
}

// NewProcessor wires the ingestion pipeline. The bus is optional; a
// nil bus disables dashboard fan-out, which simplifies tests.
func NewProcessor(events EventInserter, store *MetricsStore, b *bus.Bus, cfg config.IngestConfig) *Processor {
	return &Processor{
		events:  events,
		store:   store,
		bus:     b,
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// ProcessBatch ingests one batch and reports how many events were
// persisted. A batch with zero valid events but a usable sessionInfo
// still succeeds: heartbeat-only batches are the common case for
// passive readers.
func (p *Processor) ProcessBatch(ctx context.Context, batch *models.TrackBatch) (*models.TrackResponse, error) {
	if batch == nil {
		return nil, errors.New("nil batch")
	}
	if p.cfg.MaxBatchEvents > 0 && len(batch.Events) > p.cfg.MaxBatchEvents {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(batch.Events), p.cfg.MaxBatchEvents)
	}

	log := logging.Ctx(ctx)

	stored := make([]StoredEvent, 0, len(batch.Events))
	conversions := make([]bus.ConversionSignalEvent, 0, 2)

	for i := range batch.Events {
		e := &batch.Events[i]
		if err := e.Validate(); err != nil {
			metrics.RecordEventDropped(dropReasonInvalid)
			log.Debug().Err(err).Str("event_type", string(e.Type)).Msg("Dropping invalid event")
			continue
		}
		se, err := deriveContributions(*e)
		if err != nil {
			metrics.RecordEventDropped(dropReasonPayload)
			log.Debug().Err(err).Str("event_type", string(e.Type)).Msg("Dropping event with undecodable payload")
			continue
		}
		stored = append(stored, se)
		if se.Conversion {
			metrics.RecordConversionSignal(string(e.Type))
			conversions = append(conversions, bus.ConversionSignalEvent{
				SubjectID:  e.SubjectID,
				SessionID:  e.SessionID,
				EventType:  string(e.Type),
				Section:    e.CurrentSection,
				OccurredAt: e.Timestamp,
			})
		}
	}

	if len(stored) > 0 {
		if err := p.events.InsertEvents(ctx, stored); err != nil {
			for range stored {
				metrics.RecordEventDropped(dropReasonPersist)
			}
			return nil, fmt.Errorf("persist events: %w", err)
		}
		for i := range stored {
			metrics.RecordEventPersisted(string(stored[i].Event.Type))
		}
	}

	if batch.SessionInfo != nil {
		if err := validate.Struct(batch.SessionInfo); err != nil {
			log.Warn().Err(err).Msg("Skipping invalid session summary")
		} else if _, err := p.store.Merge(batch.SessionInfo, p.nowFunc()); err != nil {
			// Events are already durable, so a summary merge failure
			// degrades the fallback path rather than losing data.
			log.Error().Err(err).
				Str("subject_id", batch.SessionInfo.SubjectID).
				Msg("Failed to merge session summary")
		}
	}

	metrics.RecordIngestBatch(len(batch.Events))
	p.announce(batch, len(stored), conversions)

	return &models.TrackResponse{
		Success:         true,
		EventsProcessed: len(stored),
	}, nil
}

// announce publishes the batch and any conversion signals. Publish
// failures are logged only; the client already has its 200.
func (p *Processor) announce(batch *models.TrackBatch, persisted int, conversions []bus.ConversionSignalEvent) {
	if p.bus == nil {
		return
	}
	log := logging.WithComponent("ingest")

	subjectID, sessionID := batchIdentity(batch)
	msg, err := bus.NewBatchIngestedMessage(bus.BatchIngestedEvent{
		SubjectID:         subjectID,
		SessionID:         sessionID,
		EventsProcessed:   persisted,
		ConversionSignals: len(conversions),
		OccurredAt:        p.nowFunc(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode batch event")
	} else if err := p.bus.Publish(bus.TopicBatchIngested, msg); err != nil {
		log.Error().Err(err).Msg("Failed to publish batch event")
	}

	for _, c := range conversions {
		msg, err := bus.NewConversionSignalMessage(c)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode conversion event")
			continue
		}
		if err := p.bus.Publish(bus.TopicConversionSignal, msg); err != nil {
			log.Error().Err(err).Msg("Failed to publish conversion event")
		}
	}
}

// batchIdentity resolves the subject and session for announcements,
// preferring the session summary over the first event.
func batchIdentity(batch *models.TrackBatch) (string, string) {
	if batch.SessionInfo != nil {
		return batch.SessionInfo.SubjectID, batch.SessionInfo.SessionID
	}
	if len(batch.Events) > 0 {
		return batch.Events[0].SubjectID, batch.Events[0].SessionID
	}
	return "", ""
}
