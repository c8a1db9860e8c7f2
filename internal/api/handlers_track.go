// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/ingest"
	"github.com/admitlens/admitlens/internal/logging"
	"github.com/admitlens/admitlens/internal/models"
)

// Track handles POST /api/v1/track, the public batch ingestion
// endpoint. It always answers with the tracker's flat wire shape
// {success, eventsProcessed, error?}, never the dashboard envelope:
// the in-page tracker is the consumer here, and it must get a
// structured response even on failure (never a bare 500 page).
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Ingest.MaxBodyBytes)

	var batch models.TrackBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.auditRejection(r, "", "oversized")
			h.trackError(w, http.StatusRequestEntityTooLarge, "batch body too large")
			return
		}
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Malformed track batch")
		h.auditRejection(r, "", "malformed")
		h.trackError(w, http.StatusBadRequest, "malformed batch payload")
		return
	}

	resp, err := h.processor.ProcessBatch(r.Context(), &batch)
	if err != nil {
		if errors.Is(err, ingest.ErrBatchTooLarge) {
			h.auditRejection(r, batchSubject(&batch), "oversized")
			h.trackError(w, http.StatusRequestEntityTooLarge, "too many events in batch")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Batch ingestion failed")
		h.trackError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	// New telemetry supersedes any cached snapshot for this subject
	if h.snapCache != nil {
		if subject := batchSubject(&batch); subject != "" {
			h.snapCache.Delete(subject)
		}
	}

	h.writeTrackResponse(w, http.StatusOK, resp)
}

func (h *Handler) auditRejection(r *http.Request, subjectID, reason string) {
	if h.auditLog != nil {
		h.auditLog.LogBatchRejected(r, subjectID, reason)
	}
}

func batchSubject(batch *models.TrackBatch) string {
	if batch.SessionInfo != nil {
		return batch.SessionInfo.SubjectID
	}
	if len(batch.Events) > 0 {
		return batch.Events[0].SubjectID
	}
	return ""
}

func (h *Handler) trackError(w http.ResponseWriter, status int, message string) {
	h.writeTrackResponse(w, status, &models.TrackResponse{
		Success: false,
		Error:   message,
	})
}

func (h *Handler) writeTrackResponse(w http.ResponseWriter, status int, resp *models.TrackResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to write track response")
	}
}
