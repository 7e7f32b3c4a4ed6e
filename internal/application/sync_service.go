package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

const (
	customersPath = "/customers.json"
	productsPath  = "/products.json"
	ordersPath    = "/orders.json"

	customersPageSize = 250
	productsPageSize  = 250
	ordersPageSize    = 100

	updatedSinceFilter = "updated_at_min"
)

// Job outcomes reported to SyncMetrics
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// segmentPlan describes one entity pass of a sync invocation
type segmentPlan struct {
	segment  domain.Segment
	path     string
	pageSize int
	upsert   func(ctx context.Context, tenantID string, raw json.RawMessage) error
}

// SyncService runs full and incremental syncs for one tenant, one segment at a time
type SyncService struct {
	tenants  ports.TenantDirectory
	fetcher  ports.CollectionFetcher
	runs     ports.SyncRunStore
	locker   ports.TenantLocker
	notifier ports.FailureNotifier
	events   ports.SyncEventPublisher
	metrics  ports.SyncMetrics
	plans    []segmentPlan
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSyncService creates a new sync orchestrator. Segments run customers, products, then orders.
func NewSyncService(
	tenants ports.TenantDirectory,
	fetcher ports.CollectionFetcher,
	customers *CustomerUpsertService,
	products *ProductUpsertService,
	orders *OrderUpsertService,
	runs ports.SyncRunStore,
	locker ports.TenantLocker,
	notifier ports.FailureNotifier,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		tenants:  tenants,
		fetcher:  fetcher,
		runs:     runs,
		locker:   locker,
		notifier: notifier,
		events:   nopEvents{},
		metrics:  nopMetrics{},
		plans: []segmentPlan{
			{
				segment:  domain.SegmentCustomers,
				path:     customersPath,
				pageSize: customersPageSize,
				upsert: func(ctx context.Context, tenantID string, raw json.RawMessage) error {
					_, err := customers.Upsert(ctx, tenantID, raw)
					return err
				},
			},
			{
				segment:  domain.SegmentProducts,
				path:     productsPath,
				pageSize: productsPageSize,
				upsert: func(ctx context.Context, tenantID string, raw json.RawMessage) error {
					_, err := products.Upsert(ctx, tenantID, raw)
					return err
				},
			},
			{
				segment:  domain.SegmentOrders,
				path:     ordersPath,
				pageSize: ordersPageSize,
				upsert: func(ctx context.Context, tenantID string, raw json.RawMessage) error {
					_, err := orders.Upsert(ctx, tenantID, raw)
					return err
				},
			},
		},
		logger: logger,
		now:    time.Now,
	}
}

// WithEvents sets the live progress publisher
func (s *SyncService) WithEvents(events ports.SyncEventPublisher) *SyncService {
	if events != nil {
		s.events = events
	}
	return s
}

// WithMetrics sets the metrics sink
func (s *SyncService) WithMetrics(metrics ports.SyncMetrics) *SyncService {
	if metrics != nil {
		s.metrics = metrics
	}
	return s
}

// FullSync pulls every customer, product and order of the tenant
func (s *SyncService) FullSync(ctx context.Context, tenantID string) error {
	return s.run(ctx, tenantID, domain.SyncTypeFull, nil)
}

// IncrementalSync pulls records updated at or after since
func (s *SyncService) IncrementalSync(ctx context.Context, tenantID string, since time.Time) error {
	filters := map[string]string{
		updatedSinceFilter: since.UTC().Format(time.RFC3339),
	}
	return s.run(ctx, tenantID, domain.SyncTypeIncremental, filters)
}

// Execute dispatches a queued job by its type
func (s *SyncService) Execute(ctx context.Context, job domain.SyncJob) error {
	syncType, err := domain.ParseSyncType(string(job.Type))
	if err != nil {
		return err
	}

	switch syncType {
	case domain.SyncTypeIncremental:
		if job.Since == nil {
			return domain.NewValidationError(errors.New("since is required for INCREMENTAL jobs"))
		}
		return s.IncrementalSync(ctx, job.TenantID, *job.Since)
	default:
		return s.FullSync(ctx, job.TenantID)
	}
}

func (s *SyncService) run(ctx context.Context, tenantID string, syncType domain.SyncType, filters map[string]string) error {
	tenant, err := s.tenants.GetRequired(ctx, tenantID)
	if err != nil {
		s.metrics.ObserveJob(string(syncType), OutcomeError)
		return err
	}

	unlock, err := s.locker.TryLock(ctx, tenant.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			s.metrics.ObserveJob(string(syncType), OutcomeSkipped)
		} else {
			s.metrics.ObserveJob(string(syncType), OutcomeError)
		}
		return err
	}
	defer unlock()

	logger := s.logger.With().Str("tenantId", tenant.TenantID).Str("type", string(syncType)).Logger()
	logger.Info().Interface("filters", filters).Msg("Sync started")
	started := s.now()

	for _, plan := range s.plans {
		if err := s.runSegment(ctx, tenant.TenantID, plan, filters, logger); err != nil {
			s.metrics.ObserveJob(string(syncType), OutcomeError)
			return err
		}
	}

	s.metrics.ObserveJob(string(syncType), OutcomeSuccess)
	logger.Info().Dur("duration", s.now().Sub(started)).Msg("Sync completed")
	return nil
}

func (s *SyncService) runSegment(ctx context.Context, tenantID string, plan segmentPlan, filters map[string]string, logger zerolog.Logger) error {
	run := domain.NewSyncRun(tenantID, plan.segment, s.now().UTC())
	if err := s.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create %s sync run: %w", plan.segment, err)
	}
	s.publish(run)

	records := 0
	err := s.fetcher.IterateAll(ctx, tenantID, plan.path, plan.pageSize, filters, func(ctx context.Context, items []json.RawMessage) error {
		for _, item := range items {
			if err := plan.upsert(ctx, tenantID, item); err != nil {
				return err
			}
			records++
		}
		return nil
	})

	// the run row is finalized even when the invocation context was cancelled
	finishCtx := context.WithoutCancel(ctx)

	if err != nil {
		run.Fail(records, err.Error(), s.now().UTC())
		if finishErr := s.runs.Finish(finishCtx, run); finishErr != nil {
			logger.Error().Err(finishErr).Str("segment", string(plan.segment)).Msg("Failed to record sync run failure")
		}
		s.publish(run)
		s.metrics.ObserveSegment(plan.segment, run.Status, records)
		s.notifier.Notify(finishCtx, tenantID, plan.segment, err.Error())

		logger.Error().
			Err(err).
			Str("segment", string(plan.segment)).
			Int("records", records).
			Msg("Sync segment failed")
		return fmt.Errorf("%s sync failed for tenant %s: %w", plan.segment, tenantID, err)
	}

	run.Complete(records, s.now().UTC())
	if err := s.runs.Finish(finishCtx, run); err != nil {
		return fmt.Errorf("failed to finish %s sync run: %w", plan.segment, err)
	}
	s.publish(run)
	s.metrics.ObserveSegment(plan.segment, run.Status, records)

	logger.Info().
		Str("segment", string(plan.segment)).
		Int("records", records).
		Msg("Sync segment completed")
	return nil
}

func (s *SyncService) publish(run *domain.SyncRun) {
	at := run.StartedAt
	if run.CompletedAt != nil {
		at = *run.CompletedAt
	}
	s.events.Publish(&domain.SyncEvent{
		TenantID: run.TenantID,
		Segment:  run.Segment,
		Status:   run.Status,
		Records:  run.RecordsProcessed,
		Error:    run.ErrorMessage,
		At:       at,
	})
}

type nopEvents struct{}

func (nopEvents) Publish(*domain.SyncEvent) {}

type nopMetrics struct{}

func (nopMetrics) ObserveJob(string, string) {}
func (nopMetrics) ObserveSegment(domain.Segment, domain.SyncRunStatus, int) {}
func (nopMetrics) ObserveFetchAttempt(string) {}
func (nopMetrics) SetQueueRegistrySize(int) {}
