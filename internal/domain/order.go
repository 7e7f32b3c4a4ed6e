package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the local copy of an upstream order, unique per (TenantID, ExternalID).
// CustomerID is the local customer id, empty when the customer has not been synced.
type Order struct {
	ID                 string              `json:"id"`
	TenantID           string              `json:"tenant_id"`
	ExternalID         int64               `json:"external_id"`
	CustomerID         string              `json:"customer_id,omitempty"`
	CustomerExternalID int64               `json:"customer_external_id,omitempty"`
	OrderNumber        string              `json:"order_number,omitempty"`
	Email              string              `json:"email,omitempty"`
	FinancialStatus    string              `json:"financial_status,omitempty"`
	FulfillmentStatus  string              `json:"fulfillment_status,omitempty"`
	TotalPrice         decimal.NullDecimal `json:"total_price"`
	SubtotalPrice      decimal.NullDecimal `json:"subtotal_price"`
	TotalTax           decimal.NullDecimal `json:"total_tax"`
	TotalDiscounts     decimal.NullDecimal `json:"total_discounts"`
	TotalShipping      decimal.NullDecimal `json:"total_shipping"`
	Currency           string              `json:"currency,omitempty"`
	Confirmed          bool                `json:"confirmed"`
	CreatedAt          *time.Time          `json:"created_at,omitempty"`
	UpdatedAt          *time.Time          `json:"updated_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason       string              `json:"cancel_reason,omitempty"`
	Tags               string              `json:"tags,omitempty"`
	Note               string              `json:"note,omitempty"`
	SyncedAt           time.Time           `json:"synced_at"`
	LineItems          []OrderLineItem     `json:"line_items,omitempty"`
}

// OrderLineItem is a child row owned by an order. ProductID and VariantID are local ids
// resolved from the upstream product_id and variant_id, empty when not synced yet.
type OrderLineItem struct {
	ID                string              `json:"id"`
	TenantID          string              `json:"tenant_id"`
	OrderID           string              `json:"order_id"`
	ExternalID        int64               `json:"external_id"`
	Title             string              `json:"title,omitempty"`
	Quantity          int                 `json:"quantity"`
	Price             decimal.NullDecimal `json:"price"`
	TotalDiscount     decimal.Decimal     `json:"total_discount"`
	SKU               string              `json:"sku,omitempty"`
	Vendor            string              `json:"vendor,omitempty"`
	ProductID         string              `json:"product_id,omitempty"`
	VariantID         string              `json:"variant_id,omitempty"`
	ProductExternalID int64               `json:"product_external_id,omitempty"`
	VariantExternalID int64               `json:"variant_external_id,omitempty"`
}
