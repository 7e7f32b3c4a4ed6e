package ports

import "archie-core-shopify-sync/internal/domain"

// SyncEventPublisher fans sync progress out to live subscribers
type SyncEventPublisher interface {
	Publish(event *domain.SyncEvent)
}

// SyncMetrics records pipeline counters
type SyncMetrics interface {
	ObserveJob(jobType, outcome string)
	ObserveSegment(segment domain.Segment, status domain.SyncRunStatus, records int)
	ObserveFetchAttempt(outcome string)
	SetQueueRegistrySize(size int)
}
