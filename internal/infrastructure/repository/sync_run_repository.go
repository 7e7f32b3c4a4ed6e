package repository

import (
	"context"
	"fmt"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSyncRunRepository implements SyncRunStore using MongoDB
type MongoSyncRunRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncRunRepository creates a new MongoDB sync run repository
func NewMongoSyncRunRepository(db *mongo.Database) *MongoSyncRunRepository {
	return &MongoSyncRunRepository{
		collection: db.Collection(syncRunsCollection),
	}
}

// Create inserts a new run
func (r *MongoSyncRunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	doc := entity.MongoSyncRunDocFromDomain(run)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}

	run.ID = doc.ID.Hex()
	return nil
}

// Finish records the final status of a run
func (r *MongoSyncRunRepository) Finish(ctx context.Context, run *domain.SyncRun) error {
	objID, err := primitive.ObjectIDFromHex(run.ID)
	if err != nil {
		return fmt.Errorf("invalid sync run id %q: %w", run.ID, err)
	}

	update := bson.M{"$set": bson.M{
		"status":           string(run.Status),
		"recordsProcessed": run.RecordsProcessed,
		"errorMessage":     run.ErrorMessage,
		"completedAt":      run.CompletedAt,
	}}

	if _, err := r.collection.UpdateByID(ctx, objID, update); err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	return nil
}

// ListRecent retrieves runs newest first
func (r *MongoSyncRunRepository) ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = defaultSyncRunListLimit
	}
	if limit > maximumSyncRunListLimit {
		limit = maximumSyncRunListLimit
	}

	filter := bson.M{}
	if tenantID != "" {
		filter["tenantId"] = tenantID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*domain.SyncRun
	for cursor.Next(ctx) {
		var doc entity.MongoSyncRunDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode sync run: %w", err)
		}
		runs = append(runs, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return runs, nil
}
