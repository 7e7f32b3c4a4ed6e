package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderUpsertService reconciles upstream order records and keeps customer aggregates current
type OrderUpsertService struct {
	orders    ports.OrderStore
	customers ports.CustomerStore
	products  ports.ProductStore
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrderUpsertService creates a new order reconciler
func NewOrderUpsertService(
	orders ports.OrderStore,
	customers ports.CustomerStore,
	products ports.ProductStore,
	logger zerolog.Logger,
) *OrderUpsertService {
	return &OrderUpsertService{
		orders:    orders,
		customers: customers,
		products:  products,
		logger:    logger,
		now:       time.Now,
	}
}

// Upsert creates or overwrites the order keyed by (tenantID, id), replaces its line items
// and recomputes the totals of the customer it references.
func (s *OrderUpsertService) Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Order, error) {
	rec, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	externalID, err := rec.externalID()
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order %d: %w", externalID, err)
	}
	previousCustomerID := ""
	if order == nil {
		order = &domain.Order{TenantID: tenantID, ExternalID: externalID}
	} else {
		previousCustomerID = order.CustomerID
	}

	logger := s.logger.With().Str("tenantId", tenantID).Int64("orderId", externalID).Logger()

	order.CustomerExternalID = rec.number("customer.id")
	order.CustomerID = ""
	if order.CustomerExternalID != 0 {
		customer, err := s.customers.FindByExternalID(ctx, tenantID, order.CustomerExternalID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve customer of order %d: %w", externalID, err)
		}
		if customer != nil {
			order.CustomerID = customer.ID
		} else {
			logger.Debug().Int64("customerId", order.CustomerExternalID).Msg("Order customer not synced yet")
		}
	}

	order.OrderNumber = rec.text("order_number")
	order.Email = rec.text("email")
	order.FinancialStatus = rec.text("financial_status")
	order.FulfillmentStatus = rec.text("fulfillment_status")
	order.TotalPrice = rec.money("total_price")
	order.SubtotalPrice = rec.money("subtotal_price")
	order.TotalTax = rec.money("total_tax")
	order.TotalDiscounts = rec.money("total_discounts")
	order.TotalShipping = rec.money("shipping_lines.0.price")
	order.Currency = rec.text("currency")
	order.Confirmed = rec.boolOr("confirmed", true)
	order.CreatedAt = rec.timestamp("created_at", logger)
	order.UpdatedAt = rec.timestamp("updated_at", logger)
	order.CancelledAt = rec.timestamp("cancelled_at", logger)
	order.CancelReason = rec.text("cancel_reason")
	order.Tags = rec.text("tags")
	order.Note = rec.text("note")
	order.SyncedAt = s.now().UTC()

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order %d: %w", externalID, err)
	}

	items, err := s.lineItems(ctx, tenantID, order.ID, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to build line items of order %d: %w", externalID, err)
	}
	if err := s.orders.ReplaceLineItems(ctx, tenantID, order.ID, items); err != nil {
		return nil, fmt.Errorf("failed to replace line items of order %d: %w", externalID, err)
	}
	order.LineItems = items

	if order.CustomerID != "" {
		if err := s.RecomputeCustomerTotals(ctx, tenantID, order.CustomerID); err != nil {
			return nil, err
		}
	}
	if previousCustomerID != "" && previousCustomerID != order.CustomerID {
		if err := s.RecomputeCustomerTotals(ctx, tenantID, previousCustomerID); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// RecomputeCustomerTotals derives total spend and order count from the customer's stored orders.
// Orders without a total count towards the order count only.
func (s *OrderUpsertService) RecomputeCustomerTotals(ctx context.Context, tenantID, customerID string) error {
	orders, err := s.orders.ListByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return fmt.Errorf("failed to list orders of customer %s: %w", customerID, err)
	}

	total := decimal.Zero
	for _, o := range orders {
		if o.TotalPrice.Valid {
			total = total.Add(o.TotalPrice.Decimal)
		}
	}

	if err := s.customers.UpdateMetrics(ctx, tenantID, customerID, total, len(orders)); err != nil {
		return fmt.Errorf("failed to update totals of customer %s: %w", customerID, err)
	}
	return nil
}

func (s *OrderUpsertService) lineItems(ctx context.Context, tenantID, orderID string, rec record) ([]domain.OrderLineItem, error) {
	items := make([]domain.OrderLineItem, 0)
	for _, li := range rec.items("line_items") {
		item := domain.OrderLineItem{
			TenantID:          tenantID,
			OrderID:           orderID,
			ExternalID:        li.number("id"),
			Title:             li.text("title"),
			Quantity:          li.count("quantity"),
			Price:             li.money("price"),
			TotalDiscount:     li.moneyOrZero("total_discount"),
			SKU:               li.text("sku"),
			Vendor:            li.text("vendor"),
			ProductExternalID: li.number("product_id"),
			VariantExternalID: li.number("variant_id"),
		}

		if item.ProductExternalID != 0 {
			product, err := s.products.FindByExternalID(ctx, tenantID, item.ProductExternalID)
			if err != nil {
				return nil, err
			}
			if product != nil {
				item.ProductID = product.ID
			}
		}
		if item.VariantExternalID != 0 {
			variant, err := s.products.FindVariantByExternalID(ctx, tenantID, item.VariantExternalID)
			if err != nil {
				return nil, err
			}
			if variant != nil {
				item.VariantID = variant.ID
			}
		}

		items = append(items, item)
	}
	return items, nil
}
