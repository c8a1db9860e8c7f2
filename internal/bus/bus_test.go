// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	b := New(DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := b.Subscriber().Subscribe(ctx, TopicConversionSignal)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sent := ConversionSignalEvent{
		SubjectID:  "STU-001",
		SessionID:  "sess-a",
		EventType:  "form_submission",
		Section:    "admissions",
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	msg, err := NewConversionSignalMessage(sent)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := b.Publish(TopicConversionSignal, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-msgs:
		got.Ack()
		if got.Metadata.Get("subject_id") != "STU-001" {
			t.Errorf("expected subject metadata, got %q", got.Metadata.Get("subject_id"))
		}
		evt, err := DecodeConversionSignal(got)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if evt != sent {
			t.Errorf("round trip mismatch: got %+v want %+v", evt, sent)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	b := New(DefaultConfig(), nil)
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	msg, err := NewBatchIngestedMessage(BatchIngestedEvent{SubjectID: "STU-001"})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := b.Publish(TopicBatchIngested, msg); err == nil {
		t.Error("expected error publishing on closed bus")
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := New(DefaultConfig(), nil)
	if err := b.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestRouterConsumesTopic(t *testing.T) {
	b := New(DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	router, err := NewRouter(nil, nil)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	received := make(chan BatchIngestedEvent, 1)
	router.AddConsumerHandler("test_consumer", TopicBatchIngested, b.Subscriber(), func(msg *message.Message) error {
		evt, err := DecodeBatchIngested(msg)
		if err != nil {
			return err
		}
		received <- evt
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	msg, err := NewBatchIngestedMessage(BatchIngestedEvent{
		SubjectID:       "STU-002",
		SessionID:       "sess-b",
		EventsProcessed: 7,
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := b.Publish(TopicBatchIngested, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case evt := <-received:
		if evt.SubjectID != "STU-002" || evt.EventsProcessed != 7 {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for consumer")
	}

	cancel()
	_ = router.Close()
}
