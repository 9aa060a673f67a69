package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// RegisterWebhook handles POST /webhooks/.
func (h *Handler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "POST", "/webhooks")
		return
	}

	var req domain.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/webhooks")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "Webhook url is required", "POST", "/webhooks")
		return
	}

	// The signing secret is minted here and only ever surfaced through
	// the X-Dodo-Signature header on deliveries.
	id, err := h.store.CreateWebhook(r.Context(), businessID, req.URL, uuid.NewString())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/webhooks")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]int64{"webhook_id": id}, "POST", "/webhooks")
}

// ListWebhooks handles GET /webhooks/.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", "/webhooks")
		return
	}

	webhooks, err := h.store.GetWebhooksByBusiness(r.Context(), businessID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/webhooks")
		return
	}
	h.respondJSON(w, http.StatusOK, webhooks, "GET", "/webhooks")
}

// UpdateWebhook handles PUT /webhooks/{webhook_id}.
func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "PUT", "/webhooks/{id}")
		return
	}

	webhookID, err := pathID(r, "webhook_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid webhook id", "PUT", "/webhooks/{id}")
		return
	}

	var req domain.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "PUT", "/webhooks/{id}")
		return
	}
	if req.Status != nil && *req.Status != domain.WebhookActive && *req.Status != domain.WebhookDisabled {
		h.respondError(w, http.StatusBadRequest, "Invalid webhook status", "PUT", "/webhooks/{id}")
		return
	}

	affected, err := h.store.UpdateWebhook(r.Context(), businessID, webhookID, req.URL, req.Status)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "PUT", "/webhooks/{id}")
		return
	}
	if affected == 0 {
		h.respondError(w, http.StatusNotFound, "Webhook not found", "PUT", "/webhooks/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, "webhook updated", "PUT", "/webhooks/{id}")
}

// DeleteWebhook handles DELETE /webhooks/{webhook_id}; the endpoint is
// disabled, not removed, so past events keep their reference.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "DELETE", "/webhooks/{id}")
		return
	}

	webhookID, err := pathID(r, "webhook_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid webhook id", "DELETE", "/webhooks/{id}")
		return
	}

	affected, err := h.store.DisableWebhook(r.Context(), businessID, webhookID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "DELETE", "/webhooks/{id}")
		return
	}
	if affected == 0 {
		h.respondError(w, http.StatusNotFound, "Webhook not found", "DELETE", "/webhooks/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, "webhook disabled", "DELETE", "/webhooks/{id}")
}
