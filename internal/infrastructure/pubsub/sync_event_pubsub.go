package pubsub

import (
	"context"
	"fmt"
	"sync"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 32

// SyncEventChannel represents a subscription channel
type SyncEventChannel struct {
	ID     string
	Filter *SyncEventFilter
	Events chan *domain.SyncEvent
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// SyncEventFilter filters sync events
type SyncEventFilter struct {
	TenantID string
	Segments []domain.Segment
}

// SyncEventPubSub fans segment progress out to live subscribers
type SyncEventPubSub struct {
	mu        sync.RWMutex
	channels  map[string]*SyncEventChannel
	logger    zerolog.Logger
	nextID    int64
	idMu      sync.Mutex
	published int64
	dropped   int64
}

// NewSyncEventPubSub creates a new sync event pub/sub
func NewSyncEventPubSub(logger zerolog.Logger) *SyncEventPubSub {
	return &SyncEventPubSub{
		channels: make(map[string]*SyncEventChannel),
		logger:   logger,
	}
}

// Subscribe creates a subscription that is removed when ctx is cancelled
func (ps *SyncEventPubSub) Subscribe(ctx context.Context, filter *SyncEventFilter) *SyncEventChannel {
	ps.idMu.Lock()
	ps.nextID++
	id := fmt.Sprintf("channel-%d", ps.nextID)
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &SyncEventChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.SyncEvent, subscriberBuffer),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", id).
		Interface("filter", filter).
		Msg("Sync event subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *SyncEventPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Sync event subscription removed")
}

// Publish broadcasts an event to every matching subscriber without blocking
func (ps *SyncEventPubSub) Publish(event *domain.SyncEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
			delivered++
		case <-channel.ctx.Done():
		default:
			ps.idMu.Lock()
			ps.dropped++
			ps.idMu.Unlock()
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping event")
		}
	}

	ps.idMu.Lock()
	ps.published++
	ps.idMu.Unlock()

	if delivered > 0 {
		ps.logger.Debug().
			Str("tenantId", event.TenantID).
			Str("segment", string(event.Segment)).
			Str("status", string(event.Status)).
			Int("subscribers", delivered).
			Msg("Published sync event to subscribers")
	}
}

func matchesFilter(event *domain.SyncEvent, filter *SyncEventFilter) bool {
	if filter == nil {
		return true
	}

	if filter.TenantID != "" && event.TenantID != filter.TenantID {
		return false
	}

	if len(filter.Segments) > 0 {
		for _, segment := range filter.Segments {
			if event.Segment == segment {
				return true
			}
		}
		return false
	}

	return true
}

// GetStats returns pub/sub statistics
func (ps *SyncEventPubSub) GetStats() map[string]interface{} {
	ps.mu.RLock()
	active := len(ps.channels)
	ps.mu.RUnlock()

	ps.idMu.Lock()
	defer ps.idMu.Unlock()
	return map[string]interface{}{
		"active_subscriptions": active,
		"published_events":     ps.published,
		"dropped_events":       ps.dropped,
	}
}
