// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package bus provides the in-process event bus connecting ingestion to
// the live dashboard feed. It is built on Watermill's gochannel Pub/Sub:
// ingestion publishes after persisting, subscribers (the WebSocket hub,
// future alerting) consume independently. Delivery is at-most-once per
// subscriber and stops at process exit; durable history lives in DuckDB,
// not here.
package bus

import (
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/admitlens/admitlens/internal/metrics"
)

// Topics carried on the bus.
const (
	// TopicBatchIngested fires once per accepted tracking batch.
	TopicBatchIngested = "engagement.batch"

	// TopicConversionSignal fires once per persisted conversion-signal
	// event (form activity, video completions, conversion link clicks).
	TopicConversionSignal = "engagement.conversion"
)

// Bus wraps the gochannel Pub/Sub with publish metrics and close
// tracking. Both the Publisher and Subscriber sides are backed by the
// same channel fabric.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// Config holds bus tuning.
type Config struct {
	// OutputChannelBuffer is the per-subscriber buffer size. When a
	// subscriber falls this far behind, publishes block; the WebSocket
	// hub drains on a dedicated goroutine so this only triggers when
	// the process is badly stalled.
	OutputChannelBuffer int64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{OutputChannelBuffer: 256}
}

// New creates the in-process bus.
func New(cfg Config, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputChannelBuffer,
		}, logger),
	}
}

// Publish sends a message to the topic, recording the outcome.
func (b *Bus) Publish(topic string, msg *message.Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	b.mu.RUnlock()

	err := b.pubsub.Publish(topic, msg)
	metrics.RecordBusPublish(topic, err)
	return err
}

// Subscriber returns the subscriber side for wiring into a router.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Publisher returns the publisher side.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// Close shuts down the bus. Subscriber channels are closed; pending
// messages are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
