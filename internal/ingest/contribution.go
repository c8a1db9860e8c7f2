// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package ingest

import (
	"errors"
	"fmt"

	"github.com/admitlens/admitlens/internal/models"
)

// deriveContributions decodes the event payload and extracts the
// numeric columns the aggregator reads. An undecodable payload is an
// error; the caller skips the event without failing the batch. An
// event of a type this server does not score yet is persisted with
// zero contributions, so newer trackers are not silently discarded.
func deriveContributions(e models.Event) (StoredEvent, error) {
	se := StoredEvent{Event: e, Conversion: e.ConversionSignal()}

	payload, err := models.DecodePayload(&e)
	if errors.Is(err, models.ErrUnknownEventType) {
		return se, nil
	}
	if err != nil {
		return StoredEvent{}, fmt.Errorf("derive contributions: %w", err)
	}

	switch p := payload.(type) {
	case *models.SectionExitPayload:
		se.DwellDeltaSec = p.TimeInSectionSec
		se.ScrollPct = p.MaxScrollPct
		se.ClicksTotal = p.Clicks
		se.VideoTotalSec = p.VideoWatchSec
	case *models.SectionScrollPayload:
		se.ScrollPct = p.ScrollPct
	case *models.VideoPlayPayload:
		se.VideoPlay = true
	case *models.VideoCompletePayload:
		se.VideoComplete = true
		se.VideoTotalSec = p.WatchedSec
	}
	return se, nil
}
