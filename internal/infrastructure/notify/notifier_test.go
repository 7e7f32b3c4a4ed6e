package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var (
	_ ports.FailureNotifier = (*LogNotifier)(nil)
	_ ports.FailureNotifier = (*KafkaNotifier)(nil)
)

// ---------------------------------------------------------------------------
// Kafka
// ---------------------------------------------------------------------------

func TestKafkaNotifier_KeysByTenant(t *testing.T) {
	writer := &recordingWriter{}
	notifier := newKafkaNotifier(writer, zerolog.Nop())
	notifier.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	notifier.Notify(context.Background(), "t1", domain.SegmentOrders, "boom")

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "t1", string(writer.messages[0].Key))

	var msg FailureMessage
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &msg))
	assert.Equal(t, FailureMessage{
		TenantID: "t1",
		Segment:  domain.SegmentOrders,
		Message:  "boom",
		FailedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, msg)

	require.NoError(t, notifier.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifier_SwallowsWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	writer := &recordingWriter{err: errors.New("broker down")}
	notifier := newKafkaNotifier(writer, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		notifier.Notify(context.Background(), "t1", domain.SegmentCustomers, "boom")
	})
	assert.Contains(t, buf.String(), "broker down")
}

func TestNewKafkaNotifier_Validation(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "sync.failures", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "", zerolog.Nop())
	assert.Error(t, err)

	notifier, err := NewKafkaNotifier([]string{"localhost:9092"}, "sync.failures", zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, notifier)
}

// ---------------------------------------------------------------------------
// Log
// ---------------------------------------------------------------------------

func TestLogNotifier_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(zerolog.New(&buf))

	notifier.Notify(context.Background(), "t1", domain.SegmentProducts, "upstream 500")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "t1", line["tenantId"])
	assert.Equal(t, "products", line["segment"])
	assert.Equal(t, "upstream 500", line["error"])
	assert.NoError(t, notifier.Close())
}
