package entity

import (
	"time"

	"archie-core-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents an order in MongoDB
type MongoOrderDoc struct {
	ID                 primitive.ObjectID    `bson:"_id,omitempty"`
	TenantID           string                `bson:"tenantId"`
	ExternalID         int64                 `bson:"externalId"`
	CustomerID         string                `bson:"customerId,omitempty"`
	CustomerExternalID int64                 `bson:"customerExternalId,omitempty"`
	OrderNumber        string                `bson:"orderNumber"`
	Email              string                `bson:"email"`
	FinancialStatus    string                `bson:"financialStatus"`
	FulfillmentStatus  string                `bson:"fulfillmentStatus"`
	TotalPrice         *primitive.Decimal128 `bson:"totalPrice"`
	SubtotalPrice      *primitive.Decimal128 `bson:"subtotalPrice"`
	TotalTax           *primitive.Decimal128 `bson:"totalTax"`
	TotalDiscounts     *primitive.Decimal128 `bson:"totalDiscounts"`
	TotalShipping      *primitive.Decimal128 `bson:"totalShipping"`
	Currency           string                `bson:"currency"`
	Confirmed          bool                  `bson:"confirmed"`
	CreatedAt          *time.Time            `bson:"createdAt"`
	UpdatedAt          *time.Time            `bson:"updatedAt"`
	CancelledAt        *time.Time            `bson:"cancelledAt"`
	CancelReason       string                `bson:"cancelReason"`
	Tags               string                `bson:"tags"`
	Note               string                `bson:"note"`
	SyncedAt           time.Time             `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	return &domain.Order{
		ID:                 hexOrEmpty(d.ID),
		TenantID:           d.TenantID,
		ExternalID:         d.ExternalID,
		CustomerID:         d.CustomerID,
		CustomerExternalID: d.CustomerExternalID,
		OrderNumber:        d.OrderNumber,
		Email:              d.Email,
		FinancialStatus:    d.FinancialStatus,
		FulfillmentStatus:  d.FulfillmentStatus,
		TotalPrice:         NullDecimalFromBSON(d.TotalPrice),
		SubtotalPrice:      NullDecimalFromBSON(d.SubtotalPrice),
		TotalTax:           NullDecimalFromBSON(d.TotalTax),
		TotalDiscounts:     NullDecimalFromBSON(d.TotalDiscounts),
		TotalShipping:      NullDecimalFromBSON(d.TotalShipping),
		Currency:           d.Currency,
		Confirmed:          d.Confirmed,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		CancelledAt:        d.CancelledAt,
		CancelReason:       d.CancelReason,
		Tags:               d.Tags,
		Note:               d.Note,
		SyncedAt:           d.SyncedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(o *domain.Order) *MongoOrderDoc {
	return &MongoOrderDoc{
		ID:                 objectIDFromHex(o.ID),
		TenantID:           o.TenantID,
		ExternalID:         o.ExternalID,
		CustomerID:         o.CustomerID,
		CustomerExternalID: o.CustomerExternalID,
		OrderNumber:        o.OrderNumber,
		Email:              o.Email,
		FinancialStatus:    o.FinancialStatus,
		FulfillmentStatus:  o.FulfillmentStatus,
		TotalPrice:         NullDecimalToBSON(o.TotalPrice),
		SubtotalPrice:      NullDecimalToBSON(o.SubtotalPrice),
		TotalTax:           NullDecimalToBSON(o.TotalTax),
		TotalDiscounts:     NullDecimalToBSON(o.TotalDiscounts),
		TotalShipping:      NullDecimalToBSON(o.TotalShipping),
		Currency:           o.Currency,
		Confirmed:          o.Confirmed,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		CancelledAt:        o.CancelledAt,
		CancelReason:       o.CancelReason,
		Tags:               o.Tags,
		Note:               o.Note,
		SyncedAt:           o.SyncedAt,
	}
}

// MongoOrderLineItemDoc represents an order line item row
type MongoOrderLineItemDoc struct {
	ID                primitive.ObjectID    `bson:"_id,omitempty"`
	TenantID          string                `bson:"tenantId"`
	OrderID           string                `bson:"orderId"`
	ExternalID        int64                 `bson:"externalId"`
	Title             string                `bson:"title"`
	Quantity          int                   `bson:"quantity"`
	Price             *primitive.Decimal128 `bson:"price"`
	TotalDiscount     primitive.Decimal128  `bson:"totalDiscount"`
	SKU               string                `bson:"sku"`
	Vendor            string                `bson:"vendor"`
	ProductID         string                `bson:"productId,omitempty"`
	VariantID         string                `bson:"variantId,omitempty"`
	ProductExternalID int64                 `bson:"productExternalId,omitempty"`
	VariantExternalID int64                 `bson:"variantExternalId,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderLineItemDoc) ToDomain() domain.OrderLineItem {
	return domain.OrderLineItem{
		ID:                hexOrEmpty(d.ID),
		TenantID:          d.TenantID,
		OrderID:           d.OrderID,
		ExternalID:        d.ExternalID,
		Title:             d.Title,
		Quantity:          d.Quantity,
		Price:             NullDecimalFromBSON(d.Price),
		TotalDiscount:     DecimalFromBSON(d.TotalDiscount),
		SKU:               d.SKU,
		Vendor:            d.Vendor,
		ProductID:         d.ProductID,
		VariantID:         d.VariantID,
		ProductExternalID: d.ProductExternalID,
		VariantExternalID: d.VariantExternalID,
	}
}

// MongoOrderLineItemDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderLineItemDocFromDomain(li domain.OrderLineItem) *MongoOrderLineItemDoc {
	return &MongoOrderLineItemDoc{
		ID:                objectIDFromHex(li.ID),
		TenantID:          li.TenantID,
		OrderID:           li.OrderID,
		ExternalID:        li.ExternalID,
		Title:             li.Title,
		Quantity:          li.Quantity,
		Price:             NullDecimalToBSON(li.Price),
		TotalDiscount:     DecimalToBSON(li.TotalDiscount),
		SKU:               li.SKU,
		Vendor:            li.Vendor,
		ProductID:         li.ProductID,
		VariantID:         li.VariantID,
		ProductExternalID: li.ProductExternalID,
		VariantExternalID: li.VariantExternalID,
	}
}
