// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package ingest implements the server-side ingestion pipeline for
// tracking batches: validation, payload contribution derivation, the
// append-only DuckDB event store, the BadgerDB session metrics store
// with monotonic merge semantics, and bus announcements for the live
// dashboard.
package ingest
