package api

import (
	"errors"
	"io"
	"net/http"

	"archie-core-shopify-sync/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/go-chi/chi/v5"
)

// ShopifyWebhook handles POST /webhooks/shopify/{tenantId}
func (h *Handler) ShopifyWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := chi.URLParam(r, "tenantId")

	tenant, err := h.tenants.GetRequired(ctx, tenantID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tenant.WebhookSecret == "" {
		h.logger.Warn().Str("tenantId", tenantID).Msg("Webhook secret not configured")
		writeError(w, h.logger, domain.NewValidationError(errors.New("webhook secret not configured")))
		return
	}

	topic := r.Header.Get("X-Shopify-Topic")
	if topic == "" {
		writeError(w, h.logger, domain.NewValidationError(errors.New("missing X-Shopify-Topic header")))
		return
	}

	// VerifyWebhookRequest restores the body after hashing it
	app := goshopify.App{ApiSecret: tenant.WebhookSecret}
	if !app.VerifyWebhookRequest(r) {
		h.logger.Warn().Str("tenantId", tenantID).Str("topic", topic).Msg("Webhook signature verification failed")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.logger, domain.NewValidationError(errors.New("failed to read request body")))
		return
	}
	defer r.Body.Close()

	shop := r.Header.Get("X-Shopify-Shop-Domain")
	if shop == "" {
		shop = tenant.ShopDomain
	}

	event := &domain.WebhookEvent{
		TenantID: tenant.TenantID,
		Topic:    topic,
		Shop:     shop,
		Payload:  payload,
		Verified: true,
	}

	handled, err := h.webhooks.Dispatch(ctx, event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("tenantId", tenantID).
			Msg("Failed to dispatch webhook event")

		// malformed payloads are acknowledged so Shopify stops redelivering them
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusOK, map[string]string{"received": "true", "applied": "false"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to process webhook event"})
		return
	}

	applied := "false"
	if handled {
		applied = "true"
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": "true", "applied": applied})
}
