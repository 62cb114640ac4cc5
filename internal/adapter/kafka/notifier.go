// Package kafka publishes analysis completion notices to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

// Notifier produces completion notices to a Kafka topic. It implements
// job.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the given brokers and topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// NotifyCompleted serializes and publishes one completion notice, keyed by
// analysis ID so retries for the same analysis land on the same partition.
func (n *Notifier) NotifyCompleted(ctx context.Context, notice domain.CompletionNotice) error {
	msg, err := serializeToMessage(notice)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish completion notice: %w", err)
	}
	n.logger.Debug("completion notice published", "analysis_id", notice.AnalysisID)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a CompletionNotice into a Kafka message.
func serializeToMessage(notice domain.CompletionNotice) (kafkago.Message, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize completion notice: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(notice.AnalysisID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "patch_count", Value: []byte(fmt.Sprintf("%d", notice.PatchCount))},
			{Key: "completed_at", Value: []byte(notice.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
