package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"archie-core-shopify-sync/internal/application"
	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/pubsub"
	"archie-core-shopify-sync/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TenantHeader carries the tenant id or shop domain on direct sync calls
const TenantHeader = "X-Tenant-ID"

// DirectSync runs syncs in the request goroutine
type DirectSync interface {
	FullSync(ctx context.Context, ref string) (string, error)
	IncrementalSync(ctx context.Context, ref string, since time.Time) (string, error)
	FullSyncAll(ctx context.Context) (*application.BatchResult, error)
	IncrementalSyncAll(ctx context.Context, since time.Time) (*application.BatchResult, error)
	RecentRuns(ctx context.Context, tenantID string, limit int) ([]*domain.SyncRun, error)
}

// JobTrigger enqueues sync jobs
type JobTrigger interface {
	Trigger(ctx context.Context, req application.TriggerRequest) (*application.TriggerResult, error)
}

// WebhookDispatcher applies verified webhook events
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, event *domain.WebhookEvent) (bool, error)
}

// SyncResponse is returned by the direct sync endpoints
type SyncResponse struct {
	Status   string                   `json:"status"`
	Type     domain.SyncType          `json:"type"`
	TenantID string                   `json:"tenantId,omitempty"`
	Since    *time.Time               `json:"since,omitempty"`
	Result   *application.BatchResult `json:"result,omitempty"`
}

// Handler serves the sync, job, run, event and webhook endpoints
type Handler struct {
	sync     DirectSync
	jobs     JobTrigger
	tenants  ports.TenantDirectory
	webhooks WebhookDispatcher
	events   *pubsub.SyncEventPubSub
	logger   zerolog.Logger

	heartbeat time.Duration
}

// NewHandler creates the API handler
func NewHandler(
	sync DirectSync,
	jobs JobTrigger,
	tenants ports.TenantDirectory,
	webhooks WebhookDispatcher,
	events *pubsub.SyncEventPubSub,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		sync:      sync,
		jobs:      jobs,
		tenants:   tenants,
		webhooks:  webhooks,
		events:    events,
		logger:    logger,
		heartbeat: 15 * time.Second,
	}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// TriggerJobs handles POST /api/sync/jobs
func (h *Handler) TriggerJobs(w http.ResponseWriter, r *http.Request) {
	var req application.TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.NewValidationError(fmt.Errorf("invalid request body: %w", err)))
		return
	}
	h.trigger(w, r, req)
}

// TriggerSingle handles POST /api/sync/jobs/single/{tenantId}; type defaults to INCREMENTAL
func (h *Handler) TriggerSingle(w http.ResponseWriter, r *http.Request) {
	req := application.TriggerRequest{
		Type:     r.URL.Query().Get("type"),
		TenantID: chi.URLParam(r, "tenantId"),
	}
	if req.Type == "" {
		req.Type = string(domain.SyncTypeIncremental)
	}

	since, err := optionalSince(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Since = since
	h.trigger(w, r, req)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, req application.TriggerRequest) {
	result, err := h.jobs.Trigger(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// FullSync handles POST /api/sync/full
func (h *Handler) FullSync(w http.ResponseWriter, r *http.Request) {
	tenantID, err := h.sync.FullSync(r.Context(), r.Header.Get(TenantHeader))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{Status: "completed", Type: domain.SyncTypeFull, TenantID: tenantID})
}

// IncrementalSync handles POST /api/sync/incremental?since=
func (h *Handler) IncrementalSync(w http.ResponseWriter, r *http.Request) {
	since, err := requiredSince(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenantID, err := h.sync.IncrementalSync(r.Context(), r.Header.Get(TenantHeader), since)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{
		Status:   "completed",
		Type:     domain.SyncTypeIncremental,
		TenantID: tenantID,
		Since:    &since,
	})
}

// FullSyncAll handles POST /api/sync/full/all
func (h *Handler) FullSyncAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.FullSyncAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{Status: "completed", Type: domain.SyncTypeFull, Result: result})
}

// IncrementalSyncAll handles POST /api/sync/incremental/all?since=
func (h *Handler) IncrementalSyncAll(w http.ResponseWriter, r *http.Request) {
	since, err := requiredSince(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.sync.IncrementalSyncAll(r.Context(), since)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{
		Status: "completed",
		Type:   domain.SyncTypeIncremental,
		Since:  &since,
		Result: result,
	})
}

// ListRuns handles GET /api/sync/runs?tenantId=&limit=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.logger, domain.NewValidationError(fmt.Errorf("invalid limit %q", raw)))
			return
		}
		limit = n
	}

	runs, err := h.sync.RecentRuns(r.Context(), r.URL.Query().Get("tenantId"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func optionalSince(r *http.Request) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("since"))
	if raw == "" {
		return nil, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Errorf("since must be RFC 3339: %w", err))
	}
	since = since.UTC()
	return &since, nil
}

func requiredSince(r *http.Request) (time.Time, error) {
	since, err := optionalSince(r)
	if err != nil {
		return time.Time{}, err
	}
	if since == nil {
		return time.Time{}, domain.NewValidationError(errors.New("since is required"))
	}
	return *since, nil
}
