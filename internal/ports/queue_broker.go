package ports

import (
	"context"
	"time"
)

// QueueSpec describes a durable queue and where its rejected messages go
type QueueSpec struct {
	Name                 string
	DeadLetterExchange   string
	DeadLetterRoutingKey string
	DeadLetterQueue      string
}

// Delivery is one received message. Receipt is broker specific.
type Delivery struct {
	Queue   string
	Body    []byte
	Receipt string
}

// QueueBroker is the durable job transport
type QueueBroker interface {
	// DeclareQueue provisions the queue and its dead-letter binding; repeated calls are harmless
	DeclareQueue(ctx context.Context, spec QueueSpec) error

	// KnownQueues lists queues previously declared through this broker
	KnownQueues(ctx context.Context) ([]string, error)

	Publish(ctx context.Context, queue string, body []byte) error

	// Receive waits up to wait for a message on any of queues. It returns nil, nil on timeout.
	Receive(ctx context.Context, queues []string, wait time.Duration) (*Delivery, error)

	Ack(ctx context.Context, delivery *Delivery) error

	// Reject routes the message to the dead-letter queue without requeueing it
	Reject(ctx context.Context, delivery *Delivery, reason string) error

	Close() error
}
