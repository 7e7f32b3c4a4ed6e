package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeSQSBase = "https://sqs.us-east-1.amazonaws.com/000000000000/"

// mockSQS is an in-memory SQSAPI
type mockSQS struct {
	mu         sync.Mutex
	attributes map[string]map[string]string
	messages   map[string][]sqstypes.Message
	deleted    []string
	receives   []int32
	nextID     int
}

func newMockSQS() *mockSQS {
	return &mockSQS{
		attributes: make(map[string]map[string]string),
		messages:   make(map[string][]sqstypes.Message),
	}
}

func (m *mockSQS) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := sdkaws.ToString(params.QueueName)
	if strings.Contains(name, ".") {
		return nil, fmt.Errorf("invalid queue name %q", name)
	}
	url := fakeSQSBase + name
	attrs := map[string]string{"QueueArn": "arn:aws:sqs:us-east-1:000000000000:" + name}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	m.attributes[url] = attrs
	return &sqs.CreateQueueOutput{QueueUrl: sdkaws.String(url)}, nil
}

func (m *mockSQS) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fakeSQSBase + sdkaws.ToString(params.QueueName)
	if _, ok := m.attributes[url]; !ok {
		return nil, fmt.Errorf("queue does not exist")
	}
	return &sqs.GetQueueUrlOutput{QueueUrl: sdkaws.String(url)}, nil
}

func (m *mockSQS) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &sqs.GetQueueAttributesOutput{Attributes: m.attributes[sdkaws.ToString(params.QueueUrl)]}, nil
}

func (m *mockSQS) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var urls []string
	for url := range m.attributes {
		if strings.HasPrefix(url, fakeSQSBase+sdkaws.ToString(params.QueueNamePrefix)) {
			urls = append(urls, url)
		}
	}
	return &sqs.ListQueuesOutput{QueueUrls: urls}, nil
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := sdkaws.ToString(params.QueueUrl)
	m.nextID++
	id := fmt.Sprintf("m-%d", m.nextID)
	m.messages[url] = append(m.messages[url], sqstypes.Message{
		MessageId:     sdkaws.String(id),
		Body:          params.MessageBody,
		ReceiptHandle: sdkaws.String("rh-" + id),
	})
	return &sqs.SendMessageOutput{MessageId: sdkaws.String(id)}, nil
}

func (m *mockSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receives = append(m.receives, params.WaitTimeSeconds)
	url := sdkaws.ToString(params.QueueUrl)
	msgs := m.messages[url]
	if len(msgs) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	m.messages[url] = msgs[1:]
	return &sqs.ReceiveMessageOutput{Messages: msgs[:1]}, nil
}

func (m *mockSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sdkaws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (m *mockSQS) bodies(queue string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.messages[fakeSQSBase+queue] {
		out = append(out, sdkaws.ToString(msg.Body))
	}
	return out
}

// ---------------------------------------------------------------------------
// SQS broker
// ---------------------------------------------------------------------------

func TestSQSBroker_DeclareAttachesRedrivePolicy(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())

	require.NoError(t, broker.DeclareQueue(context.Background(), testSpec))

	attrs := client.attributes[fakeSQSBase+"sync-jobs-t1"]
	require.NotNil(t, attrs)
	var redrive map[string]string
	require.NoError(t, json.Unmarshal([]byte(attrs["RedrivePolicy"]), &redrive))
	assert.Equal(t, "arn:aws:sqs:us-east-1:000000000000:sync-jobs-dlq", redrive["deadLetterTargetArn"])
	assert.Equal(t, "3", redrive["maxReceiveCount"])
	assert.Equal(t, "3600", attrs["VisibilityTimeout"])
}

func TestSQSBroker_PublishReceiveAck(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, broker.DeclareQueue(ctx, testSpec))

	require.NoError(t, broker.Publish(ctx, "sync.jobs.t1", []byte(`{"type":"FULL","tenantId":"t1"}`)))

	delivery, err := broker.Receive(ctx, []string{"sync.jobs.t1"}, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, "sync.jobs.t1", delivery.Queue)
	assert.Equal(t, "rh-m-1", delivery.Receipt)

	require.NoError(t, broker.Ack(ctx, delivery))
	assert.Equal(t, []string{"rh-m-1"}, client.deleted)

	empty, err := broker.Receive(ctx, []string{"sync.jobs.t1"}, 5*time.Second)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSQSBroker_ReceiveLongPollsOnlyLastQueue(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	ctx := context.Background()
	for _, tenant := range []string{"a", "b", "c"} {
		spec := testSpec
		spec.Name = "sync.jobs." + tenant
		require.NoError(t, broker.DeclareQueue(ctx, spec))
	}

	delivery, err := broker.Receive(ctx, []string{"sync.jobs.a", "sync.jobs.b", "sync.jobs.c"}, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, delivery)
	assert.Equal(t, []int32{0, 0, 20}, client.receives)
}

func TestSQSBroker_RejectMovesToDeadLetterQueue(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, broker.DeclareQueue(ctx, testSpec))
	require.NoError(t, broker.Publish(ctx, "sync.jobs.t1", []byte(`{"type":"FULL","tenantId":"t1"}`)))

	delivery, err := broker.Receive(ctx, []string{"sync.jobs.t1"}, 0)
	require.NoError(t, err)
	require.NotNil(t, delivery)

	require.NoError(t, broker.Reject(ctx, delivery, "customers sync failed"))

	letters := client.bodies("sync-jobs-dlq")
	require.Len(t, letters, 1)
	var letter DeadLetter
	require.NoError(t, json.Unmarshal([]byte(letters[0]), &letter))
	assert.Equal(t, "sync.jobs.t1", letter.Queue)
	assert.Equal(t, "customers sync failed", letter.Reason)
	assert.Contains(t, client.deleted, delivery.Receipt)
}

func TestSQSBroker_KnownQueuesMapsNamesBack(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, broker.DeclareQueue(ctx, testSpec))

	fresh := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	known, err := fresh.KnownQueues(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sync.jobs.t1", "sync.jobs.dlq"}, known)

	require.NoError(t, fresh.Publish(ctx, "sync.jobs.t1", []byte(`{}`)))
	assert.Len(t, client.bodies("sync-jobs-t1"), 1)
}

func TestSQSBroker_RejectsNamesThatCannotMapBack(t *testing.T) {
	tests := []struct {
		name  string
		queue string
	}{
		{"dotted tenant id", "sync.jobs.acme.eu"},
		{"invalid characters", "sync.jobs.t 1"},
		{"too long", "sync.jobs." + strings.Repeat("x", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockSQS()
			broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
			spec := testSpec
			spec.Name = tt.queue

			err := broker.DeclareQueue(context.Background(), spec)
			assert.ErrorIs(t, err, domain.ErrValidation)

			err = broker.Publish(context.Background(), tt.queue, []byte(`{}`))
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, client.attributes)
		})
	}
}

func TestSQSBroker_HyphenatedTenantRoundTrips(t *testing.T) {
	client := newMockSQS()
	broker := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	ctx := context.Background()
	spec := testSpec
	spec.Name = "sync.jobs.acme-eu"
	require.NoError(t, broker.DeclareQueue(ctx, spec))

	known, err := NewSQSBroker(client, "sync.jobs.", "sync.jobs.dlq", zerolog.Nop()).KnownQueues(ctx)
	require.NoError(t, err)
	assert.Contains(t, known, "sync.jobs.acme-eu")
}

func TestSQSBroker_SatisfiesPort(t *testing.T) {
	var _ ports.QueueBroker = NewSQSBroker(newMockSQS(), "sync.jobs.", "sync.jobs.dlq", zerolog.Nop())
	var _ ports.QueueBroker = (*RedisBroker)(nil)
	var _ ports.TenantLocker = (*RedisTenantLock)(nil)
	var _ ports.TenantLocker = NewMemoryTenantLock()
}
