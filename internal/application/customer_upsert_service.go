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

// CustomerUpsertService reconciles upstream customer records into the local store
type CustomerUpsertService struct {
	customers ports.CustomerStore
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCustomerUpsertService creates a new customer reconciler
func NewCustomerUpsertService(customers ports.CustomerStore, logger zerolog.Logger) *CustomerUpsertService {
	return &CustomerUpsertService{
		customers: customers,
		logger:    logger,
		now:       time.Now,
	}
}

// Upsert creates or overwrites the customer keyed by (tenantID, id) and replaces its addresses
func (s *CustomerUpsertService) Upsert(ctx context.Context, tenantID string, raw json.RawMessage) (*domain.Customer, error) {
	rec, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	externalID, err := rec.externalID()
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer %d: %w", externalID, err)
	}
	if customer == nil {
		customer = &domain.Customer{TenantID: tenantID, ExternalID: externalID}
	}

	logger := s.logger.With().Str("tenantId", tenantID).Int64("customerId", externalID).Logger()

	customer.Email = rec.text("email")
	customer.FirstName = rec.text("first_name")
	customer.LastName = rec.text("last_name")
	customer.Phone = rec.text("phone")
	customer.AcceptsMarketing = rec.boolOr("accepts_marketing", false)
	customer.State = rec.text("state")
	customer.TotalSpent = rec.moneyOrZero("total_spent")
	customer.OrdersCount = rec.count("orders_count")
	customer.LastOrderDate = rec.timestamp("last_order_created_at", logger)
	customer.Tags = rec.text("tags")
	customer.Note = rec.text("note")
	customer.CreatedAt = rec.timestamp("created_at", logger)
	customer.UpdatedAt = rec.timestamp("updated_at", logger)
	customer.SyncedAt = s.now().UTC()

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer %d: %w", externalID, err)
	}

	addresses := make([]domain.CustomerAddress, 0)
	for _, a := range rec.items("addresses") {
		addresses = append(addresses, domain.CustomerAddress{
			TenantID:   tenantID,
			CustomerID: customer.ID,
			ExternalID: a.number("id"),
			Address1:   a.text("address1"),
			Address2:   a.text("address2"),
			City:       a.text("city"),
			Province:   a.text("province"),
			Country:    a.text("country"),
			Zip:        a.text("zip"),
			IsDefault:  a.boolOr("default", false),
		})
	}

	if err := s.customers.ReplaceAddresses(ctx, tenantID, customer.ID, addresses); err != nil {
		return nil, fmt.Errorf("failed to replace addresses of customer %d: %w", externalID, err)
	}
	customer.Addresses = addresses

	return customer, nil
}
