package queue

import (
	"context"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockKeyPrefix = "sync:lock:"

// releaseScript deletes the lease only while it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTenantLock is a per-tenant lease shared by every process using the same Redis.
// The TTL bounds how long a crashed holder can block its tenant.
type RedisTenantLock struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisTenantLock creates a lease-based TenantLocker
func NewRedisTenantLock(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisTenantLock {
	return &RedisTenantLock{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// TryLock takes the tenant's lease or returns domain.ErrSyncInProgress
func (l *RedisTenantLock) TryLock(ctx context.Context, tenantID string) (func(), error) {
	key := lockKeyPrefix + tenantID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lease for %s: %w", tenantID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, tenantID)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("tenantId", tenantID).Msg("Failed to release sync lease")
		}
	}, nil
}
