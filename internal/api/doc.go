// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package api provides HTTP routing and handlers using the Chi router:
// the public /track ingestion endpoint, the authenticated engagement
// dashboard endpoints, health probes, and the live WebSocket feed.
package api
