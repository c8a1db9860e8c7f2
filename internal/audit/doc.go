// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package audit records security-relevant events: dashboard login
// attempts and rejected tracking batches. Events are written
// asynchronously to a DuckDB table on the shared event-store
// connection and pruned on a retention schedule.
package audit
