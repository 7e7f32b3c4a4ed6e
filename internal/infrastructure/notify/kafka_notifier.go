package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer used by KafkaNotifier
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FailureMessage is the Kafka payload for a failed segment
type FailureMessage struct {
	TenantID string         `json:"tenantId"`
	Segment  domain.Segment `json:"segment"`
	Message  string         `json:"message"`
	FailedAt time.Time      `json:"failedAt"`
}

// KafkaNotifier publishes sync failures to a Kafka topic keyed by tenant id
type KafkaNotifier struct {
	writer messageWriter
	logger zerolog.Logger
	now    func() time.Time
}

// NewKafkaNotifier creates an async writer for topic. Delivery errors are only logged.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka notifier requires a topic")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error().
					Err(err).
					Int("messages", len(messages)).
					Str("topic", topic).
					Msg("Failed to deliver failure notification")
			}
		},
	}
	return newKafkaNotifier(w, logger), nil
}

func newKafkaNotifier(writer messageWriter, logger zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, logger: logger, now: time.Now}
}

// Notify enqueues the failure; it never blocks on the broker
func (n *KafkaNotifier) Notify(ctx context.Context, tenantID string, segment domain.Segment, message string) {
	body, err := json.Marshal(FailureMessage{
		TenantID: tenantID,
		Segment:  segment,
		Message:  message,
		FailedAt: n.now().UTC(),
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to marshal failure notification")
		return
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(tenantID), Value: body}); err != nil {
		n.logger.Error().
			Err(err).
			Str("tenantId", tenantID).
			Str("segment", string(segment)).
			Msg("Failed to publish failure notification")
	}
}

// Close flushes pending messages
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
