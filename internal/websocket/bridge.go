// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package websocket

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/admitlens/admitlens/internal/bus"
	"github.com/admitlens/admitlens/internal/logging"
)

// RegisterBusHandlers wires the event bus into the hub: every ingested
// batch and conversion signal is decoded and fanned out to connected
// dashboard clients. Decode failures are logged and acked; replaying a
// malformed message cannot fix it.
func RegisterBusHandlers(router *bus.Router, b *bus.Bus, hub *Hub) {
	router.AddConsumerHandler(
		"ws_batch_ingested",
		bus.TopicBatchIngested,
		b.Subscriber(),
		func(msg *message.Message) error {
			evt, err := bus.DecodeBatchIngested(msg)
			if err != nil {
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("skipping undecodable batch message")
				return nil
			}
			hub.BroadcastJSON(MessageTypeBatchIngested, evt)
			return nil
		},
	)

	router.AddConsumerHandler(
		"ws_conversion_signal",
		bus.TopicConversionSignal,
		b.Subscriber(),
		func(msg *message.Message) error {
			evt, err := bus.DecodeConversionSignal(msg)
			if err != nil {
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("skipping undecodable conversion message")
				return nil
			}
			hub.BroadcastJSON(MessageTypeConversionSignal, evt)
			return nil
		},
	)
}
