package ports

import (
	"context"

	"archie-core-shopify-sync/internal/domain"
)

// TenantDirectory resolves tenants for the sync pipeline
type TenantDirectory interface {
	// ListActive returns every tenant with IsActive set
	ListActive(ctx context.Context) ([]*domain.Tenant, error)

	// GetRequired returns the tenant or an error wrapping domain.ErrTenantNotFound
	GetRequired(ctx context.Context, tenantID string) (*domain.Tenant, error)

	// FindByShopDomain returns nil, nil when no tenant owns the domain
	FindByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error)
}
