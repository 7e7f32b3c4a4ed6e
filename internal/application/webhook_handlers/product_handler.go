package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ProductUpserter reconciles one upstream product record
type ProductUpserter interface {
	Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Product, error)
}

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	products ProductUpserter
	logger   zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(products ProductUpserter, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" ||
		topic == "products/update"
}

// Handle upserts the product carried by the event
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	product, err := h.products.Upsert(ctx, event.TenantID, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to upsert product from webhook: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("tenantId", event.TenantID).
		Int64("productId", product.ExternalID).
		Int("variants", len(product.Variants)).
		Msg("Product webhook applied")
	return nil
}
