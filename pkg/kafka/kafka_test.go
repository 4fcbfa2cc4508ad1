package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip")

	if err := p.Publish(context.Background(), "events", []byte("r1"), map[string]string{"status": "Complete"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.PublishMessage(context.Background(), "logs", "raw"); err != nil {
		t.Fatalf("publish message: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	if got := string(w.msgs[0].Value); got != `{"status":"Complete"}` {
		t.Fatalf("json value = %s", got)
	}
	if string(w.msgs[0].Key) != "r1" || w.msgs[0].Topic != "events" {
		t.Fatalf("unexpected first message: %+v", w.msgs[0])
	}
	if string(w.msgs[1].Value) != "raw" || w.msgs[1].Key != nil {
		t.Fatalf("unexpected second message: %+v", w.msgs[1])
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "gzip")
	err := p.Publish(context.Background(), "events", nil, "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 50*time.Millisecond, 2*time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
