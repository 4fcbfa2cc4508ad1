package repository

import (
	"context"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

// EventPublisher is the slice of the Kafka producer used for report events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaReportEvents publishes terminal report transitions keyed by report id.
type KafkaReportEvents struct {
	pub   EventPublisher
	topic string
}

// NewKafkaReportEvents creates a KafkaReportEvents publishing to topic.
func NewKafkaReportEvents(pub EventPublisher, topic string) *KafkaReportEvents {
	return &KafkaReportEvents{pub: pub, topic: topic}
}

func (e *KafkaReportEvents) Publish(ctx context.Context, ev models.ReportEvent) error {
	return e.pub.Publish(ctx, e.topic, []byte(ev.ReportID), ev)
}

// NoopReportEvents drops every event.
type NoopReportEvents struct{}

func (NoopReportEvents) Publish(context.Context, models.ReportEvent) error { return nil }

var (
	_ repository.ReportEvents = (*KafkaReportEvents)(nil)
	_ repository.ReportEvents = NoopReportEvents{}
)
