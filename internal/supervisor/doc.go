// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package supervisor builds the suture supervision tree that keeps the
// HTTP server, WebSocket hub, bus consumers, and periodic broadcasters
// running with restart-with-backoff semantics.
package supervisor
