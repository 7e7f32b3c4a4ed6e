package entity

import (
	"time"

	"archie-core-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCustomerDoc represents a customer in MongoDB
type MongoCustomerDoc struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	TenantID         string               `bson:"tenantId"`
	ExternalID       int64                `bson:"externalId"`
	Email            string               `bson:"email"`
	FirstName        string               `bson:"firstName"`
	LastName         string               `bson:"lastName"`
	Phone            string               `bson:"phone"`
	AcceptsMarketing bool                 `bson:"acceptsMarketing"`
	State            string               `bson:"state"`
	TotalSpent       primitive.Decimal128 `bson:"totalSpent"`
	OrdersCount      int                  `bson:"ordersCount"`
	LastOrderDate    *time.Time           `bson:"lastOrderDate"`
	Tags             string               `bson:"tags"`
	Note             string               `bson:"note"`
	CreatedAt        *time.Time           `bson:"createdAt"`
	UpdatedAt        *time.Time           `bson:"updatedAt"`
	SyncedAt         time.Time            `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCustomerDoc) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:               hexOrEmpty(d.ID),
		TenantID:         d.TenantID,
		ExternalID:       d.ExternalID,
		Email:            d.Email,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Phone:            d.Phone,
		AcceptsMarketing: d.AcceptsMarketing,
		State:            d.State,
		TotalSpent:       DecimalFromBSON(d.TotalSpent),
		OrdersCount:      d.OrdersCount,
		LastOrderDate:    d.LastOrderDate,
		Tags:             d.Tags,
		Note:             d.Note,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		SyncedAt:         d.SyncedAt,
	}
}

// MongoCustomerDocFromDomain converts a domain entity to a MongoDB document
func MongoCustomerDocFromDomain(c *domain.Customer) *MongoCustomerDoc {
	return &MongoCustomerDoc{
		ID:               objectIDFromHex(c.ID),
		TenantID:         c.TenantID,
		ExternalID:       c.ExternalID,
		Email:            c.Email,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Phone:            c.Phone,
		AcceptsMarketing: c.AcceptsMarketing,
		State:            c.State,
		TotalSpent:       DecimalToBSON(c.TotalSpent),
		OrdersCount:      c.OrdersCount,
		LastOrderDate:    c.LastOrderDate,
		Tags:             c.Tags,
		Note:             c.Note,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		SyncedAt:         c.SyncedAt,
	}
}

// MongoCustomerAddressDoc represents a customer address row
type MongoCustomerAddressDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TenantID   string             `bson:"tenantId"`
	CustomerID string             `bson:"customerId"`
	ExternalID int64              `bson:"externalId"`
	Address1   string             `bson:"address1"`
	Address2   string             `bson:"address2"`
	City       string             `bson:"city"`
	Province   string             `bson:"province"`
	Country    string             `bson:"country"`
	Zip        string             `bson:"zip"`
	IsDefault  bool               `bson:"isDefault"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCustomerAddressDoc) ToDomain() domain.CustomerAddress {
	return domain.CustomerAddress{
		ID:         hexOrEmpty(d.ID),
		TenantID:   d.TenantID,
		CustomerID: d.CustomerID,
		ExternalID: d.ExternalID,
		Address1:   d.Address1,
		Address2:   d.Address2,
		City:       d.City,
		Province:   d.Province,
		Country:    d.Country,
		Zip:        d.Zip,
		IsDefault:  d.IsDefault,
	}
}

// MongoCustomerAddressDocFromDomain converts a domain entity to a MongoDB document
func MongoCustomerAddressDocFromDomain(a domain.CustomerAddress) *MongoCustomerAddressDoc {
	return &MongoCustomerAddressDoc{
		ID:         objectIDFromHex(a.ID),
		TenantID:   a.TenantID,
		CustomerID: a.CustomerID,
		ExternalID: a.ExternalID,
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		Province:   a.Province,
		Country:    a.Country,
		Zip:        a.Zip,
		IsDefault:  a.IsDefault,
	}
}
