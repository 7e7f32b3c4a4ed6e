package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ProductUpsertService reconciles upstream product records into the local store
type ProductUpsertService struct {
	products ports.ProductStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProductUpsertService creates a new product reconciler
func NewProductUpsertService(products ports.ProductStore, logger zerolog.Logger) *ProductUpsertService {
	return &ProductUpsertService{
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

// Upsert creates or overwrites the product keyed by (tenantID, id) and replaces its variants
func (s *ProductUpsertService) Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Product, error) {
	rec, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	externalID, err := rec.externalID()
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product %d: %w", externalID, err)
	}
	if product == nil {
		product = &domain.Product{TenantID: tenantID, ExternalID: externalID}
	}

	logger := s.logger.With().Str("tenantId", tenantID).Int64("productId", externalID).Logger()

	product.Title = rec.text("title")
	product.Handle = rec.text("handle")
	product.BodyHTML = rec.text("body_html")
	product.Vendor = rec.text("vendor")
	product.ProductType = rec.text("product_type")
	product.Status = rec.text("status")
	product.Tags = rec.text("tags")
	product.CreatedAt = rec.timestamp("created_at", logger)
	product.UpdatedAt = rec.timestamp("updated_at", logger)
	product.PublishedAt = rec.timestamp("published_at", logger)
	product.SyncedAt = s.now().UTC()

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product %d: %w", externalID, err)
	}

	variants := make([]domain.ProductVariant, 0)
	for _, v := range rec.items("variants") {
		variants = append(variants, domain.ProductVariant{
			TenantID:          tenantID,
			ProductID:         product.ID,
			ExternalID:        v.number("id"),
			Title:             v.text("title"),
			Price:             v.money("price"),
			CompareAtPrice:    v.money("compare_at_price"),
			SKU:               v.text("sku"),
			InventoryQuantity: v.count("inventory_quantity"),
			Weight:            v.money("weight"),
			RequiresShipping:  v.boolOr("requires_shipping", true),
			Taxable:           v.boolOr("taxable", true),
			CreatedAt:         v.timestamp("created_at", logger),
			UpdatedAt:         v.timestamp("updated_at", logger),
		})
	}

	if err := s.products.ReplaceVariants(ctx, tenantID, product.ID, variants); err != nil {
		return nil, fmt.Errorf("failed to replace variants of product %d: %w", externalID, err)
	}
	product.Variants = variants

	return product, nil
}
