package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tenantsCollection       = "tenants"
	customersCollection     = "customers"
	addressesCollection     = "customer_addresses"
	productsCollection      = "products"
	variantsCollection      = "product_variants"
	ordersCollection        = "orders"
	lineItemsCollection     = "order_line_items"
	syncRunsCollection      = "sync_runs"
	defaultSyncRunListLimit = 50
	maximumSyncRunListLimit = 500
)

// MongoStore bundles every repository backed by one database
type MongoStore struct {
	db        *mongo.Database
	Tenants   *MongoTenantRepository
	Customers *MongoCustomerRepository
	Products  *MongoProductRepository
	Orders    *MongoOrderRepository
	SyncRuns  *MongoSyncRunRepository
}

// NewMongoStore creates the repositories for db
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:        db,
		Tenants:   NewMongoTenantRepository(db),
		Customers: NewMongoCustomerRepository(db),
		Products:  NewMongoProductRepository(db),
		Orders:    NewMongoOrderRepository(db),
		SyncRuns:  NewMongoSyncRunRepository(db),
	}
}

// EnsureIndexes creates the lookup indexes and the (tenantId, externalId) unique keys
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	tenantExternal := bson.D{{Key: "tenantId", Value: 1}, {Key: "externalId", Value: 1}}

	indexes := map[string][]mongo.IndexModel{
		tenantsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "isActive", Value: 1}}},
		},
		customersCollection: {
			{Keys: tenantExternal, Options: unique},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "email", Value: 1}}},
		},
		addressesCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "customerId", Value: 1}}},
		},
		productsCollection: {
			{Keys: tenantExternal, Options: unique},
		},
		variantsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "productId", Value: 1}}},
			{Keys: tenantExternal},
		},
		ordersCollection: {
			{Keys: tenantExternal, Options: unique},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "customerId", Value: 1}}},
		},
		lineItemsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "orderId", Value: 1}}},
		},
		syncRunsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "startedAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func upsertAndReturn() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}
