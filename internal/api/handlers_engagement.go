// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Engagement handles GET /api/v1/engagement/{subjectID}: the full
// snapshot with sections, totals, lead score, and narrative.
func (h *Handler) Engagement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		respondError(w, http.StatusBadRequest, "missing_subject", "subject id is required", nil)
		return
	}

	snap, err := h.snapshot(r.Context(), subjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "snapshot_failed", "failed to build engagement snapshot", err)
		return
	}
	respondSuccess(w, snap, start)
}

// EngagementTop handles GET /api/v1/engagement/{subjectID}/top: the
// ranked section list from the snapshot, truncated to ?n= (default 5).
func (h *Handler) EngagementTop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		respondError(w, http.StatusBadRequest, "missing_subject", "subject id is required", nil)
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondError(w, http.StatusBadRequest, "invalid_parameter", "n must be a positive integer", err)
			return
		}
		limit = v
	}

	snap, err := h.snapshot(r.Context(), subjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "snapshot_failed", "failed to build engagement snapshot", err)
		return
	}

	sections := snap.Sections
	if len(sections) > limit {
		sections = sections[:limit]
	}

	respondSuccess(w, map[string]any{
		"subjectId":  snap.SubjectID,
		"hasSignals": snap.HasSignals,
		"degraded":   snap.Degraded,
		"sections":   sections,
	}, start)
}

// Narrative handles GET /api/v1/engagement/{subjectID}/narrative.
func (h *Handler) Narrative(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		respondError(w, http.StatusBadRequest, "missing_subject", "subject id is required", nil)
		return
	}

	snap, err := h.snapshot(r.Context(), subjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "snapshot_failed", "failed to build engagement snapshot", err)
		return
	}

	respondSuccess(w, map[string]any{
		"subjectId":  snap.SubjectID,
		"hasSignals": snap.HasSignals,
		"leadScore":  snap.LeadScore,
		"narrative":  snap.Narrative,
		"highlights": snap.Highlights,
	}, start)
}

// Subjects handles GET /api/v1/subjects: the dashboard list of tracked
// subjects, served from the metrics rows without touching the event
// store.
func (h *Handler) Subjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	subjects, err := h.directory.Subjects()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "subjects_failed", "failed to list subjects", err)
		return
	}
	respondSuccess(w, map[string]any{
		"subjects": subjects,
		"count":    len(subjects),
	}, start)
}
