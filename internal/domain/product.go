package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the local copy of an upstream product, unique per (TenantID, ExternalID).
type Product struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	ExternalID  int64            `json:"external_id"`
	Title       string           `json:"title,omitempty"`
	Handle      string           `json:"handle,omitempty"`
	BodyHTML    string           `json:"body_html,omitempty"`
	Vendor      string           `json:"vendor,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Status      string           `json:"status,omitempty"`
	Tags        string           `json:"tags,omitempty"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	SyncedAt    time.Time        `json:"synced_at"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a child row owned by a product, also addressable by (TenantID, ExternalID)
type ProductVariant struct {
	ID                string              `json:"id"`
	TenantID          string              `json:"tenant_id"`
	ProductID         string              `json:"product_id"`
	ExternalID        int64               `json:"external_id"`
	Title             string              `json:"title,omitempty"`
	Price             decimal.NullDecimal `json:"price"`
	CompareAtPrice    decimal.NullDecimal `json:"compare_at_price"`
	SKU               string              `json:"sku,omitempty"`
	InventoryQuantity int                 `json:"inventory_quantity"`
	Weight            decimal.NullDecimal `json:"weight"`
	RequiresShipping  bool                `json:"requires_shipping"`
	Taxable           bool                `json:"taxable"`
	CreatedAt         *time.Time          `json:"created_at,omitempty"`
	UpdatedAt         *time.Time          `json:"updated_at,omitempty"`
}
