// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

/*
Package websocket provides real-time engagement updates to dashboard
clients over gorilla/websocket.

The Hub owns the client set and fans broadcasts out in a deterministic
ID order. Clients ride a buffered send channel; one that stops draining
is disconnected rather than allowed to stall everyone else. The bridge
in this package subscribes the hub to the in-process event bus so every
ingested batch and conversion signal reaches the dashboard live.

Message types sent to clients:

  - batch_ingested: a subject's tracking batch was accepted
  - conversion_signal: a high-intent event (form activity, video
    completion, conversion link click) was persisted
  - stats_update: periodic dashboard roll-up refresh
  - pong: reply to a client ping

The hub runs under suture supervision via RunWithContext.
*/
package websocket
