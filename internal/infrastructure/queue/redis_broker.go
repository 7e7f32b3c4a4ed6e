package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"archie-core-shopify-sync/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	registryKey   = "sync:queues"
	metaKeyPrefix = "sync:queues:meta:"
)

// RedisBroker keeps one Redis list per queue. Publish pushes on the left and Receive pops on the right.
// A received message leaves the list immediately, so Ack has nothing to do.
type RedisBroker struct {
	client     *redis.Client
	defaultDLQ string
	logger     zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	offset int
}

// NewRedisClient creates a client whose blocking commands honour context cancellation
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              password,
		DB:                    db,
		ContextTimeoutEnabled: true,
	})
}

// NewRedisBroker creates a broker. defaultDLQ receives rejects from queues declared without one.
func NewRedisBroker(client *redis.Client, defaultDLQ string, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		client:     client,
		defaultDLQ: defaultDLQ,
		logger:     logger,
		now:        time.Now,
	}
}

// DeclareQueue records the queue and its dead-letter route
func (b *RedisBroker) DeclareQueue(ctx context.Context, spec ports.QueueSpec) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, metaKeyPrefix+spec.Name, map[string]interface{}{
			"deadLetterExchange":   spec.DeadLetterExchange,
			"deadLetterRoutingKey": spec.DeadLetterRoutingKey,
			"deadLetterQueue":      spec.DeadLetterQueue,
		})
		pipe.SAdd(ctx, registryKey, spec.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", spec.Name, err)
	}
	return nil
}

// KnownQueues lists every queue declared through any broker sharing this Redis
func (b *RedisBroker) KnownQueues(ctx context.Context) ([]string, error) {
	names, err := b.client.SMembers(ctx, registryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	return names, nil
}

// Publish appends a message to the queue
func (b *RedisBroker) Publish(ctx context.Context, queue string, body []byte) error {
	if err := b.client.LPush(ctx, queue, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Receive pops the oldest message from the first non-empty queue. The starting queue rotates
// between calls so that one busy tenant cannot starve the others.
func (b *RedisBroker) Receive(ctx context.Context, queues []string, wait time.Duration) (*ports.Delivery, error) {
	if len(queues) == 0 {
		return nil, nil
	}

	result, err := b.client.BRPop(ctx, wait, b.rotate(queues)...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to receive: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of %d elements", len(result))
	}

	return &ports.Delivery{Queue: result[0], Body: []byte(result[1])}, nil
}

// Ack is a no-op; the message was removed when it was received
func (b *RedisBroker) Ack(ctx context.Context, delivery *ports.Delivery) error {
	return nil
}

// Reject pushes a DeadLetter envelope onto the queue's dead-letter list
func (b *RedisBroker) Reject(ctx context.Context, delivery *ports.Delivery, reason string) error {
	meta, err := b.client.HGetAll(ctx, metaKeyPrefix+delivery.Queue).Result()
	if err != nil {
		return fmt.Errorf("failed to read dead-letter route of %s: %w", delivery.Queue, err)
	}

	dlq := meta["deadLetterQueue"]
	if dlq == "" {
		dlq = b.defaultDLQ
	}

	letter := newDeadLetter(delivery.Queue, delivery.Body, reason, b.now())
	letter.DeadLetterExchange = meta["deadLetterExchange"]
	letter.DeadLetterRoutingKey = meta["deadLetterRoutingKey"]

	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}
	if err := b.client.LPush(ctx, dlq, payload).Err(); err != nil {
		return fmt.Errorf("failed to dead-letter message from %s: %w", delivery.Queue, err)
	}

	b.logger.Warn().
		Str("queue", delivery.Queue).
		Str("dlq", dlq).
		Str("reason", reason).
		Msg("Message dead-lettered")
	return nil
}

// Close closes the Redis client
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func (b *RedisBroker) rotate(queues []string) []string {
	b.mu.Lock()
	start := b.offset % len(queues)
	b.offset++
	b.mu.Unlock()

	out := make([]string, 0, len(queues))
	out = append(out, queues[start:]...)
	return append(out, queues[:start]...)
}
