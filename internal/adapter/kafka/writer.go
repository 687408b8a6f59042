package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

// Writer publishes aggregated alerts to a Kafka topic.
// It implements pipeline.AlertSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// AlertMessage is the JSON value of each published message.
type AlertMessage struct {
	RunID       string       `json:"run_id"`
	PublishedAt time.Time    `json:"published_at"`
	Alert       domain.Alert `json:"alert"`
}

// PublishAlerts serializes the alerts of one run and publishes them in a
// single WriteMessages call.
func (w *Writer) PublishAlerts(ctx context.Context, runID string, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	now := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(runID, now, alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write alerts: %w", err)
	}
	w.logger.Debug("alerts published", "topic", w.writer.Topic, "count", len(msgs), "run_id", runID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an alert into a Kafka message keyed by source.
func serializeToMessage(runID string, publishedAt time.Time, alert domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(AlertMessage{RunID: runID, PublishedAt: publishedAt, Alert: alert})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.Source),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazard", Value: []byte(alert.Hazard)},
			{Key: "region_kind", Value: []byte(alert.RegionKind)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
