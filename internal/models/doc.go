// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package models defines the wire-level data contracts shared by the
// client tracker, the ingestion endpoint, and the dashboard read side:
// telemetry events and their typed payloads, tracking batches, persisted
// engagement metrics rows, and aggregated snapshots.
package models
