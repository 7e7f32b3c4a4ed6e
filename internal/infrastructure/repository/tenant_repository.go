package repository

import (
	"context"
	"fmt"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTenantRepository implements TenantDirectory using MongoDB
type MongoTenantRepository struct {
	collection *mongo.Collection
}

// NewMongoTenantRepository creates a new MongoDB tenant repository
func NewMongoTenantRepository(db *mongo.Database) *MongoTenantRepository {
	return &MongoTenantRepository{
		collection: db.Collection(tenantsCollection),
	}
}

// ListActive retrieves all active tenants
func (r *MongoTenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*domain.Tenant
	for cursor.Next(ctx) {
		var doc entity.MongoTenantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode tenant: %w", err)
		}
		tenants = append(tenants, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return tenants, nil
}

// GetRequired retrieves a tenant by id, failing with ErrTenantNotFound
func (r *MongoTenantRepository) GetRequired(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenant, err := r.findOne(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
	}
	return tenant, nil
}

// FindByShopDomain retrieves a tenant by shop domain
func (r *MongoTenantRepository) FindByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	return r.findOne(ctx, bson.M{"shopDomain": shopDomain})
}

func (r *MongoTenantRepository) findOne(ctx context.Context, filter bson.M) (*domain.Tenant, error) {
	var doc entity.MongoTenantDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return doc.ToDomain(), nil
}
