package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// OrderUpserter reconciles one upstream order record
type OrderUpserter interface {
	Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Order, error)
}

// OrderHandler handles order-related webhook events
type OrderHandler struct {
	orders OrderUpserter
	logger zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(orders OrderUpserter, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/cancelled" ||
		topic == "orders/paid" ||
		topic == "orders/fulfilled" ||
		topic == "orders/partially_fulfilled"
}

// Handle upserts the order carried by the event, which also refreshes its customer's totals
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	order, err := h.orders.Upsert(ctx, event.TenantID, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to upsert order from webhook: %w", err)
	}

	entry := h.logger.Info().
		Str("topic", event.Topic).
		Str("tenantId", event.TenantID).
		Int64("orderId", order.ExternalID).
		Str("financialStatus", order.FinancialStatus)
	if order.CancelledAt != nil {
		entry = entry.Time("cancelledAt", *order.CancelledAt)
	}
	entry.Msg("Order webhook applied")
	return nil
}
