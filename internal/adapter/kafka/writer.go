package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes run manifests to a Kafka topic.
type Notifier struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNotifier creates a Kafka producer for the manifest topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger, metrics: metrics}
}

// Publish sends m, retrying transient failures with exponential backoff.
func (n *Notifier) Publish(ctx context.Context, m domain.Manifest) error {
	msg, err := serializeToMessage(m)
	if err != nil {
		return err
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = n.writer.WriteMessages(ctx, msg)
		if err == nil {
			n.metrics.ManifestsSent.WithLabelValues("success").Inc()
			n.logger.Info("manifest published", "run_id", m.RunID, "rows", m.Rows)
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		n.logger.Warn("manifest publish failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			err = ctx.Err()
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}

	n.metrics.ManifestsSent.WithLabelValues("error").Inc()
	return fmt.Errorf("publish manifest %s: %w", m.RunID, err)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a Manifest into a Kafka message keyed by run ID.
func serializeToMessage(m domain.Manifest) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize manifest: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "comfort_mode", Value: []byte(m.ComfortMode)},
			{Key: "rows", Value: []byte(strconv.Itoa(m.Rows))},
			{Key: "completed_at", Value: []byte(m.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
