package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// CustomerUpserter reconciles one upstream customer record
type CustomerUpserter interface {
	Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Customer, error)
}

// CustomerHandler handles customer-related webhook events
type CustomerHandler struct {
	customers CustomerUpserter
	logger    zerolog.Logger
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(customers CustomerUpserter, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" ||
		topic == "customers/update"
}

// Handle upserts the customer carried by the event
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	customer, err := h.customers.Upsert(ctx, event.TenantID, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to upsert customer from webhook: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("tenantId", event.TenantID).
		Int64("customerId", customer.ExternalID).
		Int("addresses", len(customer.Addresses)).
		Msg("Customer webhook applied")
	return nil
}
