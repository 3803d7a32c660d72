package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

func TestSendEncodedSizeBoundary(t *testing.T) {
	backend := &fakeBackend{exists: true}
	g := NewGateway(testQueueConfig(), dialerFor(backend))

	if _, err := g.SendEncoded(context.Background(), "entry", "ok", strings.Repeat("A", MaxMessageSize)); err != nil {
		t.Fatalf("65536-byte message rejected: %v", err)
	}
	if backend.publishCount() != 1 {
		t.Fatalf("expected 1 publish, got %d", backend.publishCount())
	}

	_, err := g.SendEncoded(context.Background(), "entry", "big", strings.Repeat("A", MaxMessageSize+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
	if backend.publishCount() != 1 {
		t.Fatalf("oversized message reached the backend")
	}
}

func TestSendOversizedNeverDials(t *testing.T) {
	dialed := false
	dial := func(ctx context.Context, cfg config.QueueConfig) (Backend, error) {
		dialed = true
		return &fakeBackend{}, nil
	}
	g := NewGateway(testQueueConfig(), dial)

	_, err := g.SendEncoded(context.Background(), "entry", "big", strings.Repeat("A", MaxMessageSize+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
	if dialed {
		t.Fatal("gateway dialed the queue for an oversized message")
	}
}

func TestSendSubjectAndMessageID(t *testing.T) {
	backend := &fakeBackend{exists: true}
	g := NewGateway(testQueueConfig(), dialerFor(backend))

	id, err := g.Send(context.Background(), Message{Type: "entry", ID: "abc@1", Body: map[string]string{"a": "b"}})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "seq-1" {
		t.Fatalf("expected queue-assigned id seq-1, got %q", id)
	}
	p := backend.published[0]
	if p.subject != "onboarding.employee-onboarding.entry" {
		t.Fatalf("unexpected subject %q", p.subject)
	}
	if p.msgID != "abc@1" {
		t.Fatalf("unexpected msg id %q", p.msgID)
	}
	var body map[string]string
	if err := Decode(string(p.data), &body); err != nil || body["a"] != "b" {
		t.Fatalf("published payload not decodable: %v %v", body, err)
	}
}

func TestSendTimeout(t *testing.T) {
	cfg := testQueueConfig()
	cfg.Timeout = 20 * time.Millisecond
	g := NewGateway(cfg, dialerFor(&fakeBackend{exists: true, block: true}))

	_, err := g.Send(context.Background(), Message{Type: "entry", ID: "x", Body: "x"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestEnsureQueueIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	g := NewGateway(testQueueConfig(), dialerFor(backend))

	for i := 0; i < 3; i++ {
		if err := g.EnsureQueue(context.Background()); err != nil {
			t.Fatalf("EnsureQueue: %v", err)
		}
	}
	if backend.created != 1 {
		t.Fatalf("expected queue created once, got %d", backend.created)
	}
}

func TestUnconfiguredGateway(t *testing.T) {
	g := NewGateway(config.Default().Queue, nil)

	_, err := g.Send(context.Background(), Message{Type: "entry", ID: "x", Body: "x"})
	if !IsReason(err, ReasonMissingConfig) {
		t.Fatalf("expected missing-config, got %v", err)
	}
}

func TestHealthReasons(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		snap := NewGateway(config.Default().Queue, nil).Health(context.Background())
		if snap.OK || snap.Reason == nil || *snap.Reason != ReasonMissingConfig {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("queue not found", func(t *testing.T) {
		g := NewGateway(testQueueConfig(), dialerFor(&fakeBackend{}))
		snap := g.Health(context.Background())
		if snap.OK || snap.Reason == nil || *snap.Reason != ReasonQueueNotFound {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
		if snap.QueueName == nil || *snap.QueueName != "employee-onboarding" {
			t.Fatalf("queue name missing: %+v", snap.QueueName)
		}
	})

	t.Run("connection failed", func(t *testing.T) {
		cfg := testQueueConfig()
		dial := func(ctx context.Context, c config.QueueConfig) (Backend, error) {
			return nil, errors.New("dial " + c.URL + ": connection refused")
		}
		snap := NewGateway(cfg, dial).Health(context.Background())
		if snap.OK || snap.Reason == nil || *snap.Reason != ReasonConnectionFailed {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
		if snap.Diagnostics == nil || strings.Contains(snap.Diagnostics.Message, "hunter2") {
			t.Fatalf("diagnostics missing or leaked credentials: %+v", snap.Diagnostics)
		}
		if strings.Contains(snap.Connection.URL, "hunter2") {
			t.Fatalf("connection url leaked credentials: %q", snap.Connection.URL)
		}
	})

	t.Run("ok", func(t *testing.T) {
		backend := &fakeBackend{exists: true}
		g := NewGateway(testQueueConfig(), dialerFor(backend))
		if _, err := g.Send(context.Background(), Message{Type: "entry", ID: "a", Body: "a"}); err != nil {
			t.Fatalf("Send: %v", err)
		}
		snap := g.Health(context.Background())
		if !snap.OK || snap.Reason != nil {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
		if snap.ApproximateMessageCount == nil || *snap.ApproximateMessageCount != 1 {
			t.Fatalf("unexpected count %+v", snap.ApproximateMessageCount)
		}
	})
}
