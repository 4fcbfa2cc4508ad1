package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	xhttp "StoreMonitor/pkg/http"
	pkgkafka "StoreMonitor/pkg/kafka"
	"StoreMonitor/pkg/util"
)

// ObservationWriter accepts live polls; the store itself or a batching buffer.
type ObservationWriter interface {
	InsertObservations(ctx context.Context, obs []models.Observation) error
}

// StatusPollHandler appends live polls from Kafka to the observation store.
type StatusPollHandler struct {
	topic   string
	sink    ObservationWriter
	metrics domrepo.Metrics
}

// NewStatusPollHandler creates a StatusPollHandler consuming topic.
func NewStatusPollHandler(topic string, sink ObservationWriter, metrics domrepo.Metrics) *StatusPollHandler {
	return &StatusPollHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *StatusPollHandler) Topic() string { return h.topic }

// incoming message schema: {store_id, status, timestamp_utc}
func (h *StatusPollHandler) Handle(ctx context.Context, b []byte) error {
	var m models.StatusPollMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("poll_unmarshal")
		return fmt.Errorf("decode poll: %w", err)
	}
	if err := xhttp.ValidateStruct(&m); err != nil {
		h.metrics.RecordError("poll_invalid")
		return fmt.Errorf("invalid poll: %w", err)
	}
	at, err := util.ParseUTCTimestamp(m.Timestamp)
	if err != nil {
		h.metrics.RecordError("poll_invalid")
		return err
	}

	obs := models.Observation{StoreID: m.StoreID, Status: models.PollStatus(m.Status), Timestamp: at}
	if err := h.sink.InsertObservations(ctx, []models.Observation{obs}); err != nil {
		h.metrics.RecordError("poll_store")
		return fmt.Errorf("store poll: %w", err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*StatusPollHandler)(nil)
