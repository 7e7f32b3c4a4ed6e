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

// MongoProductRepository implements ProductStore using MongoDB
type MongoProductRepository struct {
	products *mongo.Collection
	variants *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		products: db.Collection(productsCollection),
		variants: db.Collection(variantsCollection),
	}
}

// FindByExternalID retrieves a product by its upstream id
func (r *MongoProductRepository) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Product, error) {
	var doc entity.MongoProductDoc
	filter := bson.M{"tenantId": tenantID, "externalId": externalID}

	err := r.products.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return doc.ToDomain(), nil
}

// Save upserts a product keyed by tenant and upstream id
func (r *MongoProductRepository) Save(ctx context.Context, product *domain.Product) error {
	doc := entity.MongoProductDocFromDomain(product)
	doc.ID = primitive.NilObjectID

	filter := bson.M{"tenantId": product.TenantID, "externalId": product.ExternalID}
	update := bson.M{"$set": doc}

	var saved entity.MongoProductDoc
	if err := r.products.FindOneAndUpdate(ctx, filter, update, upsertAndReturn()).Decode(&saved); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	product.ID = saved.ID.Hex()
	return nil
}

// ReplaceVariants deletes the product's variants and inserts the given ones
func (r *MongoProductRepository) ReplaceVariants(ctx context.Context, tenantID, productID string, variants []domain.ProductVariant) error {
	filter := bson.M{"tenantId": tenantID, "productId": productID}
	if _, err := r.variants.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	if len(variants) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(variants))
	for i := range variants {
		doc := entity.MongoProductVariantDocFromDomain(variants[i])
		doc.ID = primitive.NewObjectID()
		variants[i].ID = doc.ID.Hex()
		docs = append(docs, doc)
	}
	if _, err := r.variants.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert variants: %w", err)
	}
	return nil
}

// ListVariants retrieves the variants owned by a product
func (r *MongoProductRepository) ListVariants(ctx context.Context, tenantID, productID string) ([]domain.ProductVariant, error) {
	cursor, err := r.variants.Find(ctx, bson.M{"tenantId": tenantID, "productId": productID})
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer cursor.Close(ctx)

	var variants []domain.ProductVariant
	for cursor.Next(ctx) {
		var doc entity.MongoProductVariantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode variant: %w", err)
		}
		variants = append(variants, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return variants, nil
}

// FindVariantByExternalID retrieves a variant by its upstream id
func (r *MongoProductRepository) FindVariantByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.ProductVariant, error) {
	var doc entity.MongoProductVariantDoc
	filter := bson.M{"tenantId": tenantID, "externalId": externalID}

	err := r.variants.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}

	variant := doc.ToDomain()
	return &variant, nil
}
