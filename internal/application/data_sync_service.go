package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// SyncRunner is the orchestrator surface used by the direct API and the consumer
type SyncRunner interface {
	FullSync(ctx context.Context, tenantID string) error
	IncrementalSync(ctx context.Context, tenantID string, since time.Time) error
	Execute(ctx context.Context, job domain.SyncJob) error
}

// BatchResult summarizes a sync over every active tenant
type BatchResult struct {
	Tenants   int      `json:"tenants"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

// DataSyncService runs syncs synchronously for callers that address a tenant by id or shop domain
type DataSyncService struct {
	tenants ports.TenantDirectory
	runner  SyncRunner
	runs    ports.SyncRunStore
	logger  zerolog.Logger
}

// NewDataSyncService creates a new direct sync service
func NewDataSyncService(tenants ports.TenantDirectory, runner SyncRunner, runs ports.SyncRunStore, logger zerolog.Logger) *DataSyncService {
	return &DataSyncService{
		tenants: tenants,
		runner:  runner,
		runs:    runs,
		logger:  logger,
	}
}

// ResolveTenant accepts a tenant id or a shop domain and returns the tenant id
func (s *DataSyncService) ResolveTenant(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", domain.NewValidationError(errors.New("tenant is required"))
	}

	tenant, err := s.tenants.GetRequired(ctx, ref)
	if err == nil {
		return tenant.TenantID, nil
	}
	if !errors.Is(err, domain.ErrTenantNotFound) {
		return "", err
	}

	tenant, err = s.tenants.FindByShopDomain(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to find tenant by shop domain: %w", err)
	}
	if tenant == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrTenantNotFound, ref)
	}
	return tenant.TenantID, nil
}

// FullSync runs a full sync for the referenced tenant
func (s *DataSyncService) FullSync(ctx context.Context, ref string) (string, error) {
	tenantID, err := s.ResolveTenant(ctx, ref)
	if err != nil {
		return "", err
	}
	return tenantID, s.runner.FullSync(ctx, tenantID)
}

// IncrementalSync runs an incremental sync for the referenced tenant
func (s *DataSyncService) IncrementalSync(ctx context.Context, ref string, since time.Time) (string, error) {
	tenantID, err := s.ResolveTenant(ctx, ref)
	if err != nil {
		return "", err
	}
	return tenantID, s.runner.IncrementalSync(ctx, tenantID, since)
}

// FullSyncAll runs a full sync for every active tenant, continuing past failures
func (s *DataSyncService) FullSyncAll(ctx context.Context) (*BatchResult, error) {
	return s.forEachTenant(ctx, domain.SyncTypeFull, func(tenantID string) error {
		return s.runner.FullSync(ctx, tenantID)
	})
}

// IncrementalSyncAll runs an incremental sync for every active tenant, continuing past failures
func (s *DataSyncService) IncrementalSyncAll(ctx context.Context, since time.Time) (*BatchResult, error) {
	return s.forEachTenant(ctx, domain.SyncTypeIncremental, func(tenantID string) error {
		return s.runner.IncrementalSync(ctx, tenantID, since)
	})
}

// RecentRuns lists sync runs newest first
func (s *DataSyncService) RecentRuns(ctx context.Context, tenantID string, limit int) ([]*domain.SyncRun, error) {
	runs, err := s.runs.ListRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	if runs == nil {
		runs = []*domain.SyncRun{}
	}
	return runs, nil
}

func (s *DataSyncService) forEachTenant(ctx context.Context, syncType domain.SyncType, sync func(tenantID string) error) (*BatchResult, error) {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	result := &BatchResult{Tenants: len(tenants)}
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := sync(tenant.TenantID); err != nil {
			s.logger.Error().
				Err(err).
				Str("tenantId", tenant.TenantID).
				Str("type", string(syncType)).
				Msg("Tenant sync failed, continuing with next tenant")
			result.Failed = append(result.Failed, tenant.TenantID)
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
