package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SchedulerConfig controls the recurring producer
type SchedulerConfig struct {
	Type     domain.SyncType
	Interval time.Duration
	// TargetTenant is a tenant id or ALL
	TargetTenant string
}

// SyncJobScheduler emits one job per target tenant on a fixed interval
type SyncJobScheduler struct {
	producer *SyncJobProducer
	tenants  ports.TenantDirectory
	config   SchedulerConfig
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
}

// NewSyncJobScheduler creates a new scheduler
func NewSyncJobScheduler(producer *SyncJobProducer, tenants ports.TenantDirectory, config SchedulerConfig, logger zerolog.Logger) *SyncJobScheduler {
	return &SyncJobScheduler{
		producer: producer,
		tenants:  tenants,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the interval schedule and starts the cron runner
func (s *SyncJobScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler already running")
	}
	if s.config.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	c := cron.New(cron.WithLocation(time.UTC))
	spec := "@every " + s.config.Interval.String()
	if _, err := c.AddFunc(spec, func() { s.Tick(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule sync jobs: %w", err)
	}
	c.Start()

	s.cron = c
	s.isRunning = true

	s.logger.Info().
		Str("type", string(s.config.Type)).
		Dur("interval", s.config.Interval).
		Str("target", s.config.TargetTenant).
		Msg("Sync job scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running tick or ctx, whichever ends first
func (s *SyncJobScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	done := s.cron.Stop()
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Sync job scheduler stopped")
}

// Tick enqueues one job per target tenant and returns how many were enqueued
func (s *SyncJobScheduler) Tick(ctx context.Context) int {
	var since *time.Time
	if s.config.Type == domain.SyncTypeIncremental {
		t := s.now().UTC().Add(-s.config.Interval)
		since = &t
	}

	targets, err := s.targets(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to resolve scheduled sync targets")
		return 0
	}

	enqueued := 0
	for _, tenantID := range targets {
		job := domain.SyncJob{Type: s.config.Type, TenantID: tenantID, Since: since}
		if err := s.producer.Enqueue(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("tenantId", tenantID).Msg("Failed to enqueue scheduled sync job")
			continue
		}
		enqueued++
	}

	s.logger.Info().Int("jobs", enqueued).Int("targets", len(targets)).Msg("Scheduled sync jobs enqueued")
	return enqueued
}

func (s *SyncJobScheduler) targets(ctx context.Context) ([]string, error) {
	target := strings.TrimSpace(s.config.TargetTenant)
	if target != "" && !strings.EqualFold(target, AllTenants) {
		return []string{target}, nil
	}

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	ids := make([]string, 0, len(tenants))
	for _, tenant := range tenants {
		ids = append(ids, tenant.TenantID)
	}
	return ids, nil
}
