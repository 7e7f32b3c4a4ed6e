package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// QueueTopology names the per-tenant queues and the shared dead-letter route
type QueueTopology struct {
	Prefix               string
	DeadLetterExchange   string
	DeadLetterRoutingKey string
	DeadLetterQueue      string
}

// QueueRegistry provisions per-tenant job queues and remembers which ones exist.
// Names are only ever added; membership checks and snapshots are safe for concurrent use.
type QueueRegistry struct {
	broker   ports.QueueBroker
	tenants  ports.TenantDirectory
	topology QueueTopology
	metrics  ports.SyncMetrics
	logger   zerolog.Logger

	mu    sync.RWMutex
	known map[string]struct{}
}

// NewQueueRegistry creates an empty registry
func NewQueueRegistry(broker ports.QueueBroker, tenants ports.TenantDirectory, topology QueueTopology, metrics ports.SyncMetrics, logger zerolog.Logger) *QueueRegistry {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &QueueRegistry{
		broker:   broker,
		tenants:  tenants,
		topology: topology,
		metrics:  metrics,
		logger:   logger,
		known:    make(map[string]struct{}),
	}
}

// QueueName returns the deterministic queue name of a tenant
func (r *QueueRegistry) QueueName(tenantID string) string {
	return r.topology.Prefix + tenantID
}

// EnsureQueue provisions the tenant's queue once and returns its name
func (r *QueueRegistry) EnsureQueue(ctx context.Context, tenantID string) (string, error) {
	name := r.QueueName(tenantID)
	if r.Contains(name) {
		return name, nil
	}

	spec := ports.QueueSpec{
		Name:                 name,
		DeadLetterExchange:   r.topology.DeadLetterExchange,
		DeadLetterRoutingKey: r.topology.DeadLetterRoutingKey,
		DeadLetterQueue:      r.topology.DeadLetterQueue,
	}
	if err := r.broker.DeclareQueue(ctx, spec); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("%w: failed to declare queue %s: %v", domain.ErrBrokerUnavailable, name, err)
	}

	r.add(name)
	r.logger.Info().Str("queue", name).Str("tenantId", tenantID).Msg("Tenant queue declared")
	return name, nil
}

// Contains reports whether the queue is already known
func (r *QueueRegistry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[name]
	return ok
}

// Queues returns a sorted snapshot of the known queue names
func (r *QueueRegistry) Queues() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.known))
	for name := range r.known {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Size returns the number of known queues
func (r *QueueRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// Rebuild provisions the queues of every active tenant and adopts queues the broker already knows.
// Failures are logged and leave the registry partially filled; missing queues are declared on first use.
func (r *QueueRegistry) Rebuild(ctx context.Context) {
	tenants, err := r.tenants.ListActive(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to list active tenants for queue registry")
	}

	declared := 0
	for _, tenant := range tenants {
		if _, err := r.EnsureQueue(ctx, tenant.TenantID); err != nil {
			r.logger.Warn().Err(err).Str("tenantId", tenant.TenantID).Msg("Queue not provisioned, deferring to first use")
			continue
		}
		declared++
	}

	existing, err := r.broker.KnownQueues(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to list broker queues")
	}
	for _, name := range existing {
		if strings.HasPrefix(name, r.topology.Prefix) && name != r.topology.DeadLetterQueue {
			r.add(name)
		}
	}

	r.logger.Info().
		Int("activeTenants", len(tenants)).
		Int("declared", declared).
		Int("queues", r.Size()).
		Msg("Queue registry rebuilt")
}

func (r *QueueRegistry) add(name string) {
	r.mu.Lock()
	if _, ok := r.known[name]; !ok {
		r.known[name] = struct{}{}
	}
	size := len(r.known)
	r.mu.Unlock()

	r.metrics.SetQueueRegistrySize(size)
}
