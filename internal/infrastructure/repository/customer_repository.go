package repository

import (
	"context"
	"fmt"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/repository/entity"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCustomerRepository implements CustomerStore using MongoDB
type MongoCustomerRepository struct {
	customers *mongo.Collection
	addresses *mongo.Collection
}

// NewMongoCustomerRepository creates a new MongoDB customer repository
func NewMongoCustomerRepository(db *mongo.Database) *MongoCustomerRepository {
	return &MongoCustomerRepository{
		customers: db.Collection(customersCollection),
		addresses: db.Collection(addressesCollection),
	}
}

// FindByExternalID retrieves a customer by its upstream id
func (r *MongoCustomerRepository) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Customer, error) {
	var doc entity.MongoCustomerDoc
	filter := bson.M{"tenantId": tenantID, "externalId": externalID}

	err := r.customers.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return doc.ToDomain(), nil
}

// Save upserts a customer keyed by tenant and upstream id
func (r *MongoCustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	doc := entity.MongoCustomerDocFromDomain(customer)
	doc.ID = primitive.NilObjectID

	filter := bson.M{"tenantId": customer.TenantID, "externalId": customer.ExternalID}
	update := bson.M{"$set": doc}

	var saved entity.MongoCustomerDoc
	if err := r.customers.FindOneAndUpdate(ctx, filter, update, upsertAndReturn()).Decode(&saved); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}

	customer.ID = saved.ID.Hex()
	return nil
}

// ReplaceAddresses deletes the customer's addresses and inserts the given ones, assigning their ids
func (r *MongoCustomerRepository) ReplaceAddresses(ctx context.Context, tenantID, customerID string, addresses []domain.CustomerAddress) error {
	filter := bson.M{"tenantId": tenantID, "customerId": customerID}
	if _, err := r.addresses.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete addresses: %w", err)
	}
	if len(addresses) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(addresses))
	for i := range addresses {
		doc := entity.MongoCustomerAddressDocFromDomain(addresses[i])
		doc.ID = primitive.NewObjectID()
		addresses[i].ID = doc.ID.Hex()
		docs = append(docs, doc)
	}
	if _, err := r.addresses.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert addresses: %w", err)
	}
	return nil
}

// ListAddresses retrieves the addresses owned by a customer
func (r *MongoCustomerRepository) ListAddresses(ctx context.Context, tenantID, customerID string) ([]domain.CustomerAddress, error) {
	cursor, err := r.addresses.Find(ctx, bson.M{"tenantId": tenantID, "customerId": customerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer cursor.Close(ctx)

	var addresses []domain.CustomerAddress
	for cursor.Next(ctx) {
		var doc entity.MongoCustomerAddressDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
		addresses = append(addresses, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return addresses, nil
}

// UpdateMetrics overwrites the derived spend and order count
func (r *MongoCustomerRepository) UpdateMetrics(ctx context.Context, tenantID, customerID string, totalSpent decimal.Decimal, ordersCount int) error {
	objID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return fmt.Errorf("invalid customer id %q: %w", customerID, err)
	}

	filter := bson.M{"_id": objID, "tenantId": tenantID}
	update := bson.M{"$set": bson.M{
		"totalSpent":  entity.DecimalToBSON(totalSpent),
		"ordersCount": ordersCount,
	}}

	if _, err := r.customers.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update customer metrics: %w", err)
	}
	return nil
}
