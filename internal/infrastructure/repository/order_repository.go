package repository

import (
	"context"
	"fmt"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoOrderRepository implements OrderStore using MongoDB
type MongoOrderRepository struct {
	orders    *mongo.Collection
	lineItems *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		orders:    db.Collection(ordersCollection),
		lineItems: db.Collection(lineItemsCollection),
	}
}

// FindByExternalID retrieves an order by its upstream id
func (r *MongoOrderRepository) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Order, error) {
	var doc entity.MongoOrderDoc
	filter := bson.M{"tenantId": tenantID, "externalId": externalID}

	err := r.orders.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return doc.ToDomain(), nil
}

// Save upserts an order keyed by tenant and upstream id
func (r *MongoOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	doc := entity.MongoOrderDocFromDomain(order)
	doc.ID = primitive.NilObjectID

	filter := bson.M{"tenantId": order.TenantID, "externalId": order.ExternalID}
	update := orderUpdate(doc)

	var saved entity.MongoOrderDoc
	if err := r.orders.FindOneAndUpdate(ctx, filter, update, upsertAndReturn()).Decode(&saved); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	order.ID = saved.ID.Hex()
	return nil
}

// orderUpdate sets the document and clears customer links the order no longer has
func orderUpdate(doc *entity.MongoOrderDoc) bson.M {
	update := bson.M{"$set": doc}
	unset := bson.M{}
	if doc.CustomerID == "" {
		unset["customerId"] = ""
	}
	if doc.CustomerExternalID == 0 {
		unset["customerExternalId"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// ReplaceLineItems deletes the order's line items and inserts the given ones
func (r *MongoOrderRepository) ReplaceLineItems(ctx context.Context, tenantID, orderID string, items []domain.OrderLineItem) error {
	filter := bson.M{"tenantId": tenantID, "orderId": orderID}
	if _, err := r.lineItems.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete line items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(items))
	for i := range items {
		doc := entity.MongoOrderLineItemDocFromDomain(items[i])
		doc.ID = primitive.NewObjectID()
		items[i].ID = doc.ID.Hex()
		docs = append(docs, doc)
	}
	if _, err := r.lineItems.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert line items: %w", err)
	}
	return nil
}

// ListLineItems retrieves the line items owned by an order
func (r *MongoOrderRepository) ListLineItems(ctx context.Context, tenantID, orderID string) ([]domain.OrderLineItem, error) {
	cursor, err := r.lineItems.Find(ctx, bson.M{"tenantId": tenantID, "orderId": orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []domain.OrderLineItem
	for cursor.Next(ctx) {
		var doc entity.MongoOrderLineItemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode line item: %w", err)
		}
		items = append(items, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return items, nil
}

// ListByCustomer retrieves every order linked to a customer
func (r *MongoOrderRepository) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*domain.Order, error) {
	cursor, err := r.orders.Find(ctx, bson.M{"tenantId": tenantID, "customerId": customerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return orders, nil
}
