package entity

import (
	"time"

	"archie-core-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoSyncRunDoc represents a sync segment audit row
type MongoSyncRunDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	TenantID         string             `bson:"tenantId"`
	Segment          string             `bson:"segment"`
	Status           string             `bson:"status"`
	RecordsProcessed int                `bson:"recordsProcessed"`
	ErrorMessage     string             `bson:"errorMessage,omitempty"`
	StartedAt        time.Time          `bson:"startedAt"`
	CompletedAt      *time.Time         `bson:"completedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSyncRunDoc) ToDomain() *domain.SyncRun {
	return &domain.SyncRun{
		ID:               hexOrEmpty(d.ID),
		TenantID:         d.TenantID,
		Segment:          domain.Segment(d.Segment),
		Status:           domain.SyncRunStatus(d.Status),
		RecordsProcessed: d.RecordsProcessed,
		ErrorMessage:     d.ErrorMessage,
		StartedAt:        d.StartedAt,
		CompletedAt:      d.CompletedAt,
	}
}

// MongoSyncRunDocFromDomain converts a domain entity to a MongoDB document
func MongoSyncRunDocFromDomain(r *domain.SyncRun) *MongoSyncRunDoc {
	return &MongoSyncRunDoc{
		ID:               objectIDFromHex(r.ID),
		TenantID:         r.TenantID,
		Segment:          string(r.Segment),
		Status:           string(r.Status),
		RecordsProcessed: r.RecordsProcessed,
		ErrorMessage:     r.ErrorMessage,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
}
