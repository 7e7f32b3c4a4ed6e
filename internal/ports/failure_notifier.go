package ports

import (
	"context"

	"archie-core-shopify-sync/internal/domain"
)

// FailureNotifier reports a failed sync segment. Delivery is best effort and never returns an error.
type FailureNotifier interface {
	Notify(ctx context.Context, tenantID string, segment domain.Segment, message string)
}
