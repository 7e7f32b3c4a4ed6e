package entity

import (
	"time"

	"archie-core-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoProductDoc represents a product in MongoDB
type MongoProductDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	TenantID    string             `bson:"tenantId"`
	ExternalID  int64              `bson:"externalId"`
	Title       string             `bson:"title"`
	Handle      string             `bson:"handle"`
	BodyHTML    string             `bson:"bodyHtml"`
	Vendor      string             `bson:"vendor"`
	ProductType string             `bson:"productType"`
	Status      string             `bson:"status"`
	Tags        string             `bson:"tags"`
	CreatedAt   *time.Time         `bson:"createdAt"`
	UpdatedAt   *time.Time         `bson:"updatedAt"`
	PublishedAt *time.Time         `bson:"publishedAt"`
	SyncedAt    time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductDoc) ToDomain() *domain.Product {
	return &domain.Product{
		ID:          hexOrEmpty(d.ID),
		TenantID:    d.TenantID,
		ExternalID:  d.ExternalID,
		Title:       d.Title,
		Handle:      d.Handle,
		BodyHTML:    d.BodyHTML,
		Vendor:      d.Vendor,
		ProductType: d.ProductType,
		Status:      d.Status,
		Tags:        d.Tags,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		PublishedAt: d.PublishedAt,
		SyncedAt:    d.SyncedAt,
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document
func MongoProductDocFromDomain(p *domain.Product) *MongoProductDoc {
	return &MongoProductDoc{
		ID:          objectIDFromHex(p.ID),
		TenantID:    p.TenantID,
		ExternalID:  p.ExternalID,
		Title:       p.Title,
		Handle:      p.Handle,
		BodyHTML:    p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Status:      p.Status,
		Tags:        p.Tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		PublishedAt: p.PublishedAt,
		SyncedAt:    p.SyncedAt,
	}
}

// MongoProductVariantDoc represents a product variant row
type MongoProductVariantDoc struct {
	ID                primitive.ObjectID    `bson:"_id,omitempty"`
	TenantID          string                `bson:"tenantId"`
	ProductID         string                `bson:"productId"`
	ExternalID        int64                 `bson:"externalId"`
	Title             string                `bson:"title"`
	Price             *primitive.Decimal128 `bson:"price"`
	CompareAtPrice    *primitive.Decimal128 `bson:"compareAtPrice"`
	SKU               string                `bson:"sku"`
	InventoryQuantity int                   `bson:"inventoryQuantity"`
	Weight            *primitive.Decimal128 `bson:"weight"`
	RequiresShipping  bool                  `bson:"requiresShipping"`
	Taxable           bool                  `bson:"taxable"`
	CreatedAt         *time.Time            `bson:"createdAt"`
	UpdatedAt         *time.Time            `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductVariantDoc) ToDomain() domain.ProductVariant {
	return domain.ProductVariant{
		ID:                hexOrEmpty(d.ID),
		TenantID:          d.TenantID,
		ProductID:         d.ProductID,
		ExternalID:        d.ExternalID,
		Title:             d.Title,
		Price:             NullDecimalFromBSON(d.Price),
		CompareAtPrice:    NullDecimalFromBSON(d.CompareAtPrice),
		SKU:               d.SKU,
		InventoryQuantity: d.InventoryQuantity,
		Weight:            NullDecimalFromBSON(d.Weight),
		RequiresShipping:  d.RequiresShipping,
		Taxable:           d.Taxable,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoProductVariantDocFromDomain converts a domain entity to a MongoDB document
func MongoProductVariantDocFromDomain(v domain.ProductVariant) *MongoProductVariantDoc {
	return &MongoProductVariantDoc{
		ID:                objectIDFromHex(v.ID),
		TenantID:          v.TenantID,
		ProductID:         v.ProductID,
		ExternalID:        v.ExternalID,
		Title:             v.Title,
		Price:             NullDecimalToBSON(v.Price),
		CompareAtPrice:    NullDecimalToBSON(v.CompareAtPrice),
		SKU:               v.SKU,
		InventoryQuantity: v.InventoryQuantity,
		Weight:            NullDecimalToBSON(v.Weight),
		RequiresShipping:  v.RequiresShipping,
		Taxable:           v.Taxable,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}
