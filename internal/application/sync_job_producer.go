package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AllTenants addresses every active tenant in a trigger request
const AllTenants = "ALL"

// DefaultIncrementalWindow is the look-back applied when an INCREMENTAL trigger omits since
const DefaultIncrementalWindow = 30 * time.Minute

// TriggerRequest is the on-demand job request
type TriggerRequest struct {
	Type     string     `json:"type" validate:"required"`
	TenantID string     `json:"tenantId" validate:"required"`
	Since    *time.Time `json:"since"`
}

// TriggerResult reports what was enqueued
type TriggerResult struct {
	Status   string     `json:"status"`
	Type     string     `json:"type"`
	Since    *time.Time `json:"since"`
	TenantID string     `json:"tenantId,omitempty"`
	Jobs     *int       `json:"jobs,omitempty"`
	Failed   []string   `json:"failed,omitempty"`
}

// SyncJobProducer validates job requests and publishes them to per-tenant queues
type SyncJobProducer struct {
	tenants  ports.TenantDirectory
	registry *QueueRegistry
	broker   ports.QueueBroker
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSyncJobProducer creates a new job producer
func NewSyncJobProducer(tenants ports.TenantDirectory, registry *QueueRegistry, broker ports.QueueBroker, logger zerolog.Logger) *SyncJobProducer {
	return &SyncJobProducer{
		tenants:  tenants,
		registry: registry,
		broker:   broker,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Trigger enqueues one job for a tenant, or one per active tenant when TenantID is ALL
func (p *SyncJobProducer) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err)
	}
	syncType, err := domain.ParseSyncType(req.Type)
	if err != nil {
		return nil, err
	}

	var since *time.Time
	if syncType == domain.SyncTypeIncremental {
		if req.Since != nil {
			s := req.Since.UTC()
			since = &s
		} else {
			s := p.now().UTC().Add(-DefaultIncrementalWindow)
			since = &s
		}
	}

	result := &TriggerResult{Status: "queued", Type: string(syncType), Since: since}

	if strings.EqualFold(req.TenantID, AllTenants) {
		tenants, err := p.tenants.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active tenants: %w", err)
		}
		jobs := 0
		var firstErr error
		for _, tenant := range tenants {
			job := domain.SyncJob{Type: syncType, TenantID: tenant.TenantID, Since: since}
			if err := p.Enqueue(ctx, job); err != nil {
				p.logger.Error().Err(err).Str("tenantId", tenant.TenantID).Msg("Failed to enqueue sync job")
				result.Failed = append(result.Failed, tenant.TenantID)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			jobs++
		}
		// nothing reached the broker
		if jobs == 0 && firstErr != nil {
			return nil, firstErr
		}
		if len(result.Failed) > 0 {
			result.Status = "partial"
		}
		result.Jobs = &jobs
		return result, nil
	}

	tenant, err := p.tenants.GetRequired(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if err := p.Enqueue(ctx, domain.SyncJob{Type: syncType, TenantID: tenant.TenantID, Since: since}); err != nil {
		return nil, err
	}
	result.TenantID = tenant.TenantID
	return result, nil
}

// Enqueue ensures the tenant's queue exists and publishes the job to it
func (p *SyncJobProducer) Enqueue(ctx context.Context, job domain.SyncJob) error {
	queue, err := p.registry.EnsureQueue(ctx, job.TenantID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal sync job: %w", err)
	}

	if err := p.broker.Publish(ctx, queue, body); err != nil {
		return fmt.Errorf("%w: failed to publish to %s: %v", domain.ErrBrokerUnavailable, queue, err)
	}

	p.logger.Info().
		Str("queue", queue).
		Str("tenantId", job.TenantID).
		Str("type", string(job.Type)).
		Msg("Sync job enqueued")
	return nil
}
