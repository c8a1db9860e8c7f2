// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

/*
Package services provides suture.Service wrappers for AdmitLens components.

Each wrapper adapts an existing lifecycle pattern (ListenAndServe, Run,
RunWithContext) to suture's context-aware Serve pattern and implements
fmt.Stringer so the supervisor can name the service in its logs.

Available services:

  - HTTPServerService: wraps *http.Server with graceful shutdown
  - WebSocketHubService: wraps the dashboard websocket hub
  - BusRouterService: wraps the watermill message router
  - StatsBroadcastService: periodic dashboard stats push

Return values from Serve determine supervisor behavior: nil means a clean
stop with no restart, a non-nil error triggers a restart with backoff, and
ctx.Err() signals normal shutdown.
*/
package services
