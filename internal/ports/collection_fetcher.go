package ports

import (
	"context"
	"encoding/json"

	"archie-core-shopify-sync/internal/domain"
)

// PageHandler receives the items of one page in upstream order
type PageHandler func(ctx context.Context, items []json.RawMessage) error

// CollectionFetcher pulls cursor-paginated collections from a tenant's shop
type CollectionFetcher interface {
	// FetchPage fetches a single page. An empty cursor requests the first page.
	FetchPage(ctx context.Context, tenantID, resourcePath string, limit int, cursor string, filters map[string]string) (*domain.Page, error)

	// IterateAll fetches pages until the cursor runs out, calling handle once per page
	IterateAll(ctx context.Context, tenantID, resourcePath string, limit int, filters map[string]string, handle PageHandler) error
}
