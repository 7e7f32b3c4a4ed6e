package entity

import (
	"time"

	"archie-core-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoTenantDoc represents a tenant in MongoDB
type MongoTenantDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	TenantID      string             `bson:"tenantId"`
	ShopDomain    string             `bson:"shopDomain"`
	ShopName      string             `bson:"shopName,omitempty"`
	AccessToken   string             `bson:"accessToken"`
	WebhookSecret string             `bson:"webhookSecret,omitempty"`
	IsActive      bool               `bson:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoTenantDoc) ToDomain() *domain.Tenant {
	return &domain.Tenant{
		TenantID:      d.TenantID,
		ShopDomain:    d.ShopDomain,
		ShopName:      d.ShopName,
		AccessToken:   d.AccessToken,
		WebhookSecret: d.WebhookSecret,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
