package domain

import (
	"strings"
	"time"
)

// SyncType selects between a full pull and an updated-since pull
type SyncType string

const (
	SyncTypeFull        SyncType = "FULL"
	SyncTypeIncremental SyncType = "INCREMENTAL"
)

// ParseSyncType accepts FULL or INCREMENTAL in any case.
func ParseSyncType(s string) (SyncType, error) {
	switch SyncType(strings.ToUpper(strings.TrimSpace(s))) {
	case SyncTypeFull:
		return SyncTypeFull, nil
	case SyncTypeIncremental:
		return SyncTypeIncremental, nil
	default:
		return "", NewValidationError(ErrInvalidSyncType)
	}
}

// SyncJob is the queue message. Since is only meaningful for INCREMENTAL jobs.
type SyncJob struct {
	Type     SyncType   `json:"type"`
	TenantID string     `json:"tenantId"`
	Since    *time.Time `json:"since"`
}

// Segment is one entity-type pass within a sync invocation
type Segment string

const (
	SegmentCustomers Segment = "customers"
	SegmentProducts  Segment = "products"
	SegmentOrders    Segment = "orders"
)

// SyncRunStatus is the lifecycle state of a SyncRun
type SyncRunStatus string

const (
	SyncRunStatusInProgress SyncRunStatus = "in_progress"
	SyncRunStatusSuccess    SyncRunStatus = "success"
	SyncRunStatusError      SyncRunStatus = "error"
)

// SyncRun is the audit row for one segment of one sync invocation.
type SyncRun struct {
	ID               string        `json:"id"`
	TenantID         string        `json:"tenant_id"`
	Segment          Segment       `json:"segment"`
	Status           SyncRunStatus `json:"status"`
	RecordsProcessed int           `json:"records_processed"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// NewSyncRun creates an in-progress run for a segment.
func NewSyncRun(tenantID string, segment Segment, now time.Time) *SyncRun {
	return &SyncRun{
		TenantID:  tenantID,
		Segment:   segment,
		Status:    SyncRunStatusInProgress,
		StartedAt: now,
	}
}

// Complete marks the run successful with the number of records handled
func (r *SyncRun) Complete(records int, now time.Time) {
	r.Status = SyncRunStatusSuccess
	r.RecordsProcessed = records
	r.CompletedAt = &now
}

// Fail marks the run failed, keeping the count reached before the failure
func (r *SyncRun) Fail(records int, message string, now time.Time) {
	r.Status = SyncRunStatusError
	r.RecordsProcessed = records
	r.ErrorMessage = message
	r.CompletedAt = &now
}

// SyncEvent is published when a segment starts or finishes.
type SyncEvent struct {
	TenantID string        `json:"tenantId"`
	Segment  Segment       `json:"segment"`
	Status   SyncRunStatus `json:"status"`
	Records  int           `json:"records"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}
