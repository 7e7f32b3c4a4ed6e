package ports

import "context"

// TenantLocker guards against overlapping syncs of the same tenant.
// TryLock returns domain.ErrSyncInProgress when another holder owns the lease.
type TenantLocker interface {
	TryLock(ctx context.Context, tenantID string) (unlock func(), err error)
}
