package application

import (
	"context"
	"fmt"
	"sync"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler applies one family of webhook topics
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to the handlers that accept their topic
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// Dispatch runs every matching handler and reports whether any accepted the topic.
// Events that are not verified are refused.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	if !event.Verified {
		return false, fmt.Errorf("refusing unverified webhook for topic %s", event.Topic)
	}

	d.mu.RLock()
	handlers := make([]WebhookHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	handled := false
	for _, h := range handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			return true, err
		}
	}

	if !handled {
		d.logger.Debug().
			Str("topic", event.Topic).
			Str("tenantId", event.TenantID).
			Msg("No handler for webhook topic, ignoring")
	}
	return handled, nil
}
