package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the local copy of an upstream customer, unique per (TenantID, ExternalID).
// TotalSpent and OrdersCount are recomputed from stored orders during order sync.
type Customer struct {
	ID               string            `json:"id"`
	TenantID         string            `json:"tenant_id"`
	ExternalID       int64             `json:"external_id"`
	Email            string            `json:"email,omitempty"`
	FirstName        string            `json:"first_name,omitempty"`
	LastName         string            `json:"last_name,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	AcceptsMarketing bool              `json:"accepts_marketing"`
	State            string            `json:"state,omitempty"`
	TotalSpent       decimal.Decimal   `json:"total_spent"`
	OrdersCount      int               `json:"orders_count"`
	LastOrderDate    *time.Time        `json:"last_order_date,omitempty"`
	Tags             string            `json:"tags,omitempty"`
	Note             string            `json:"note,omitempty"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"`
	UpdatedAt        *time.Time        `json:"updated_at,omitempty"`
	SyncedAt         time.Time         `json:"synced_at"`
	Addresses        []CustomerAddress `json:"addresses,omitempty"`
}

// CustomerAddress is a child row owned by a customer
type CustomerAddress struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	CustomerID string `json:"customer_id"`
	ExternalID int64  `json:"external_id"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty"`
	Zip        string `json:"zip,omitempty"`
	IsDefault  bool   `json:"is_default"`
}
