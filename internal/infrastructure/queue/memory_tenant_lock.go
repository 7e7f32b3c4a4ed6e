package queue

import (
	"context"
	"fmt"
	"sync"

	"archie-core-shopify-sync/internal/domain"
)

// MemoryTenantLock guards tenants within a single process
type MemoryTenantLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryTenantLock creates an in-process TenantLocker
func NewMemoryTenantLock() *MemoryTenantLock {
	return &MemoryTenantLock{held: make(map[string]struct{})}
}

// TryLock marks the tenant busy or returns domain.ErrSyncInProgress
func (l *MemoryTenantLock) TryLock(ctx context.Context, tenantID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[tenantID]; busy {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, tenantID)
	}
	l.held[tenantID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, tenantID)
			l.mu.Unlock()
		})
	}, nil
}
