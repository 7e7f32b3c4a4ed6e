package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ConsumerConfig sizes the worker pool and its polling
type ConsumerConfig struct {
	Concurrency     int
	MaxConcurrency  int
	PollTimeout     time.Duration
	RefreshInterval time.Duration
}

// SyncJobConsumer drains every per-tenant queue with an elastic worker pool.
// The pool starts at Concurrency workers and adds one while all of them are busy, up to MaxConcurrency.
// Extra workers exit after an idle poll.
type SyncJobConsumer struct {
	broker   ports.QueueBroker
	registry *QueueRegistry
	runner   SyncRunner
	config   ConsumerConfig
	logger   zerolog.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	workers   int
	busy      int
	nextID    int
}

// NewSyncJobConsumer creates a new consumer
func NewSyncJobConsumer(
	broker ports.QueueBroker,
	registry *QueueRegistry,
	runner SyncRunner,
	config ConsumerConfig,
	logger zerolog.Logger,
) *SyncJobConsumer {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.MaxConcurrency < config.Concurrency {
		config.MaxConcurrency = config.Concurrency
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 2 * time.Second
	}
	return &SyncJobConsumer{
		broker:   broker,
		registry: registry,
		runner:   runner,
		config:   config,
		logger:   logger,
	}
}

// Start launches the base workers and the registry refresh loop
func (c *SyncJobConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return fmt.Errorf("consumer already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.isRunning = true

	for i := 0; i < c.config.Concurrency; i++ {
		c.spawnLocked(ctx, false)
	}

	if c.config.RefreshInterval > 0 {
		c.wg.Add(1)
		go c.refreshLoop(ctx)
	}

	c.logger.Info().
		Int("concurrency", c.config.Concurrency).
		Int("maxConcurrency", c.config.MaxConcurrency).
		Int("queues", c.registry.Size()).
		Msg("Sync job consumer started")
	return nil
}

// Stop stops polling and waits for in-flight jobs to finish or ctx to expire
func (c *SyncJobConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	c.isRunning = false
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info().Msg("Sync job consumer stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("consumer stop timed out: %w", ctx.Err())
	}
}

// Workers returns the current pool size
func (c *SyncJobConsumer) Workers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers
}

func (c *SyncJobConsumer) spawnLocked(ctx context.Context, extra bool) {
	c.nextID++
	c.workers++
	c.wg.Add(1)
	go c.work(ctx, c.nextID, extra)
}

func (c *SyncJobConsumer) work(ctx context.Context, id int, extra bool) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.workers--
		c.mu.Unlock()
	}()

	logger := c.logger.With().Int("worker", id).Logger()
	logger.Debug().Bool("extra", extra).Msg("Consumer worker started")

	for ctx.Err() == nil {
		queues := c.registry.Queues()
		if len(queues) == 0 {
			if !sleepContext(ctx, c.config.PollTimeout) {
				return
			}
			continue
		}

		delivery, err := c.broker.Receive(ctx, queues, c.config.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Failed to receive sync job")
			if !sleepContext(ctx, c.config.PollTimeout) {
				return
			}
			continue
		}
		if delivery == nil {
			if extra {
				logger.Debug().Msg("Idle extra worker exiting")
				return
			}
			continue
		}

		c.markBusy(ctx)
		c.Handle(context.WithoutCancel(ctx), delivery)
		c.markIdle()
	}
}

func (c *SyncJobConsumer) markBusy(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy++
	if c.isRunning && c.busy >= c.workers && c.workers < c.config.MaxConcurrency {
		c.spawnLocked(ctx, true)
		c.logger.Debug().Int("workers", c.workers).Msg("Consumer pool grown")
	}
}

func (c *SyncJobConsumer) markIdle() {
	c.mu.Lock()
	c.busy--
	c.mu.Unlock()
}

// Handle runs one delivery and settles it with the broker.
// Jobs skipped because the tenant is already syncing are acknowledged; failures are dead-lettered.
func (c *SyncJobConsumer) Handle(ctx context.Context, delivery *ports.Delivery) {
	logger := c.logger.With().Str("queue", delivery.Queue).Logger()

	var job domain.SyncJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		logger.Error().Err(err).Msg("Malformed sync job, dead-lettering")
		c.reject(ctx, delivery, fmt.Sprintf("malformed job: %v", err), logger)
		return
	}

	if job.TenantID == "" {
		logger.Warn().Str("type", string(job.Type)).Msg("Sync job without tenantId, dropping")
		c.ack(ctx, delivery, logger)
		return
	}

	logger = logger.With().Str("tenantId", job.TenantID).Str("type", string(job.Type)).Logger()
	logger.Info().Msg("Sync job received")

	err := c.runner.Execute(ctx, job)
	switch {
	case err == nil:
		c.ack(ctx, delivery, logger)
	case errors.Is(err, domain.ErrSyncInProgress):
		logger.Warn().Msg("Tenant sync already running, skipping job")
		c.ack(ctx, delivery, logger)
	default:
		logger.Error().Err(err).Msg("Sync job failed, dead-lettering")
		c.reject(ctx, delivery, err.Error(), logger)
	}
}

func (c *SyncJobConsumer) ack(ctx context.Context, delivery *ports.Delivery, logger zerolog.Logger) {
	if err := c.broker.Ack(ctx, delivery); err != nil {
		logger.Error().Err(err).Msg("Failed to acknowledge sync job")
	}
}

func (c *SyncJobConsumer) reject(ctx context.Context, delivery *ports.Delivery, reason string, logger zerolog.Logger) {
	if err := c.broker.Reject(ctx, delivery, reason); err != nil {
		logger.Error().Err(err).Msg("Failed to dead-letter sync job")
	}
}

func (c *SyncJobConsumer) refreshLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.registry.Rebuild(ctx)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
