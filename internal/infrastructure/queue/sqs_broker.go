package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

const (
	// maxReceiveCount lets a message survive consumer crashes before SQS redrives it
	maxReceiveCount = 3

	defaultVisibilityTimeout = time.Hour
	maxLongPoll              = 20 * time.Second
)

var sqsQueueName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}$`)

// SQSAPI is the subset of the SQS client used by SQSBroker
type SQSAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// LoadAWSConfig loads the default AWS configuration for region, falling back to us-east-1
func LoadAWSConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewSQSClient creates an SQS client, optionally against a custom endpoint such as LocalStack
func NewSQSClient(cfg sdkaws.Config, endpoint string) *sqs.Client {
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = sdkaws.String(endpoint)
		}
	})
}

// SQSBroker maps each logical queue onto an SQS queue whose redrive policy targets the shared DLQ.
// SQS names cannot contain dots, so "sync.jobs.t1" becomes "sync-jobs-t1". Tenant ids with dots
// are rejected because their queue names could not be mapped back.
type SQSBroker struct {
	client     SQSAPI
	prefix     string
	defaultDLQ string
	logger     zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	urls   map[string]string
	dlqOf  map[string]string
	offset int
}

// NewSQSBroker creates a broker for queues named prefix+tenantID
func NewSQSBroker(client SQSAPI, prefix, defaultDLQ string, logger zerolog.Logger) *SQSBroker {
	return &SQSBroker{
		client:     client,
		prefix:     prefix,
		defaultDLQ: defaultDLQ,
		logger:     logger,
		now:        time.Now,
		urls:       make(map[string]string),
		dlqOf:      make(map[string]string),
	}
}

func sqsName(name string) string {
	return strings.ReplaceAll(name, ".", "-")
}

// checkName rejects queue names that would not round-trip through KnownQueues
func (b *SQSBroker) checkName(name string) error {
	if strings.HasPrefix(name, b.prefix) && strings.Contains(strings.TrimPrefix(name, b.prefix), ".") {
		return domain.NewValidationError(fmt.Errorf("queue %s: tenant id must not contain '.' on SQS", name))
	}
	if !sqsQueueName.MatchString(sqsName(name)) {
		return domain.NewValidationError(fmt.Errorf("queue %s: not a valid SQS queue name", name))
	}
	return nil
}

// DeclareQueue creates the dead-letter queue and then the queue with a redrive policy pointing at it
func (b *SQSBroker) DeclareQueue(ctx context.Context, spec ports.QueueSpec) error {
	if err := b.checkName(spec.Name); err != nil {
		return err
	}
	dlq := spec.DeadLetterQueue
	if dlq == "" {
		dlq = b.defaultDLQ
	}

	dlqURL, err := b.createQueue(ctx, dlq, nil)
	if err != nil {
		return err
	}

	attrs, err := b.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       sdkaws.String(dlqURL),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return fmt.Errorf("failed to read arn of %s: %w", dlq, err)
	}
	arn := attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
	if arn == "" {
		return fmt.Errorf("queue %s has no arn", dlq)
	}

	redrive, err := json.Marshal(map[string]string{
		"deadLetterTargetArn": arn,
		"maxReceiveCount":     strconv.Itoa(maxReceiveCount),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal redrive policy: %w", err)
	}

	if _, err := b.createQueue(ctx, spec.Name, map[string]string{
		string(sqstypes.QueueAttributeNameRedrivePolicy):     string(redrive),
		string(sqstypes.QueueAttributeNameVisibilityTimeout): strconv.Itoa(int(defaultVisibilityTimeout.Seconds())),
	}); err != nil {
		return err
	}

	b.mu.Lock()
	b.dlqOf[spec.Name] = dlq
	b.mu.Unlock()
	return nil
}

// KnownQueues lists the existing SQS queues under the configured prefix
func (b *SQSBroker) KnownQueues(ctx context.Context) ([]string, error) {
	sqsPrefix := sqsName(b.prefix)
	var names []string
	var token *string

	for {
		out, err := b.client.ListQueues(ctx, &sqs.ListQueuesInput{
			QueueNamePrefix: sdkaws.String(sqsPrefix),
			NextToken:       token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list queues: %w", err)
		}

		for _, url := range out.QueueUrls {
			queue := url[strings.LastIndex(url, "/")+1:]
			name := b.prefix + strings.TrimPrefix(queue, sqsPrefix)
			b.mu.Lock()
			b.urls[name] = url
			b.mu.Unlock()
			names = append(names, name)
		}

		if out.NextToken == nil || *out.NextToken == "" {
			return names, nil
		}
		token = out.NextToken
	}
}

// Publish sends a message to the queue
func (b *SQSBroker) Publish(ctx context.Context, queue string, body []byte) error {
	if err := b.checkName(queue); err != nil {
		return err
	}
	url, err := b.queueURL(ctx, queue)
	if err != nil {
		return err
	}

	if _, err := b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(url),
		MessageBody: sdkaws.String(string(body)),
	}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Receive short-polls the queues in rotating order and long-polls the last one for up to wait
func (b *SQSBroker) Receive(ctx context.Context, queues []string, wait time.Duration) (*ports.Delivery, error) {
	if len(queues) == 0 {
		return nil, nil
	}
	if wait > maxLongPoll {
		wait = maxLongPoll
	}

	ordered := b.rotate(queues)
	for i, queue := range ordered {
		url, err := b.queueURL(ctx, queue)
		if err != nil {
			return nil, err
		}

		waitSeconds := int32(0)
		if i == len(ordered)-1 {
			waitSeconds = int32(wait / time.Second)
		}

		out, err := b.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            sdkaws.String(url),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     waitSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to receive from %s: %w", queue, err)
		}
		if len(out.Messages) == 0 {
			continue
		}

		msg := out.Messages[0]
		return &ports.Delivery{
			Queue:   queue,
			Body:    []byte(sdkaws.ToString(msg.Body)),
			Receipt: sdkaws.ToString(msg.ReceiptHandle),
		}, nil
	}
	return nil, nil
}

// Ack deletes the message
func (b *SQSBroker) Ack(ctx context.Context, delivery *ports.Delivery) error {
	url, err := b.queueURL(ctx, delivery.Queue)
	if err != nil {
		return err
	}

	if _, err := b.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      sdkaws.String(url),
		ReceiptHandle: sdkaws.String(delivery.Receipt),
	}); err != nil {
		return fmt.Errorf("failed to delete message from %s: %w", delivery.Queue, err)
	}
	return nil
}

// Reject copies the message into a DeadLetter on the DLQ and deletes the original
func (b *SQSBroker) Reject(ctx context.Context, delivery *ports.Delivery, reason string) error {
	b.mu.Lock()
	dlq := b.dlqOf[delivery.Queue]
	b.mu.Unlock()
	if dlq == "" {
		dlq = b.defaultDLQ
	}

	payload, err := json.Marshal(newDeadLetter(delivery.Queue, delivery.Body, reason, b.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}
	if err := b.Publish(ctx, dlq, payload); err != nil {
		return err
	}

	b.logger.Warn().
		Str("queue", delivery.Queue).
		Str("dlq", dlq).
		Str("reason", reason).
		Msg("Message dead-lettered")
	return b.Ack(ctx, delivery)
}

// Close is a no-op; the SQS client holds no connections that need closing
func (b *SQSBroker) Close() error {
	return nil
}

func (b *SQSBroker) createQueue(ctx context.Context, name string, attributes map[string]string) (string, error) {
	out, err := b.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  sdkaws.String(sqsName(name)),
		Attributes: attributes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create queue %s: %w", name, err)
	}

	url := sdkaws.ToString(out.QueueUrl)
	b.mu.Lock()
	b.urls[name] = url
	b.mu.Unlock()
	return url, nil
}

func (b *SQSBroker) queueURL(ctx context.Context, name string) (string, error) {
	b.mu.Lock()
	url, ok := b.urls[name]
	b.mu.Unlock()
	if ok {
		return url, nil
	}

	out, err := b.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: sdkaws.String(sqsName(name))})
	if err != nil {
		return "", fmt.Errorf("failed to resolve url of %s: %w", name, err)
	}

	url = sdkaws.ToString(out.QueueUrl)
	b.mu.Lock()
	b.urls[name] = url
	b.mu.Unlock()
	return url, nil
}

func (b *SQSBroker) rotate(queues []string) []string {
	b.mu.Lock()
	start := b.offset % len(queues)
	b.offset++
	b.mu.Unlock()

	out := make([]string, 0, len(queues))
	out = append(out, queues[start:]...)
	return append(out, queues[:start]...)
}
