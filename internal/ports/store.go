package ports

import (
	"context"

	"archie-core-shopify-sync/internal/domain"

	"github.com/shopspring/decimal"
)

// CustomerStore persists customers and their addresses.
// Lookups return nil, nil when nothing matches.
type CustomerStore interface {
	FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Customer, error)
	// Save upserts by (TenantID, ExternalID) and sets customer.ID
	Save(ctx context.Context, customer *domain.Customer) error
	ReplaceAddresses(ctx context.Context, tenantID, customerID string, addresses []domain.CustomerAddress) error
	ListAddresses(ctx context.Context, tenantID, customerID string) ([]domain.CustomerAddress, error)
	UpdateMetrics(ctx context.Context, tenantID, customerID string, totalSpent decimal.Decimal, ordersCount int) error
}

// ProductStore persists products and their variants
type ProductStore interface {
	FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
	ReplaceVariants(ctx context.Context, tenantID, productID string, variants []domain.ProductVariant) error
	ListVariants(ctx context.Context, tenantID, productID string) ([]domain.ProductVariant, error)
	FindVariantByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.ProductVariant, error)
}

// OrderStore persists orders and their line items
type OrderStore interface {
	FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
	ReplaceLineItems(ctx context.Context, tenantID, orderID string, items []domain.OrderLineItem) error
	ListLineItems(ctx context.Context, tenantID, orderID string) ([]domain.OrderLineItem, error)
	ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*domain.Order, error)
}

// SyncRunStore persists segment audit rows
type SyncRunStore interface {
	// Create inserts an in-progress run and sets run.ID
	Create(ctx context.Context, run *domain.SyncRun) error
	// Finish writes the final status of a run
	Finish(ctx context.Context, run *domain.SyncRun) error
	// ListRecent returns runs newest first; an empty tenantID lists every tenant
	ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.SyncRun, error)
}
