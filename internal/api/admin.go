package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CreateBusiness handles POST /admin/businesses.
func (h *Handler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/admin/businesses")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(w, http.StatusBadRequest, "Business name is required", "POST", "/admin/businesses")
		return
	}

	id, err := h.store.CreateBusiness(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/admin/businesses")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]int64{"business_id": id}, "POST", "/admin/businesses")
}

// ListBusinesses handles GET /admin/businesses.
func (h *Handler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.store.GetBusinesses(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/admin/businesses")
		return
	}
	h.respondJSON(w, http.StatusOK, businesses, "GET", "/admin/businesses")
}

// GenerateAPIKey handles POST /admin/businesses/{business_id}/api-keys.
// The raw token appears in this response and nowhere else, ever.
func (h *Handler) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	businessID, err := pathID(r, "business_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid business id", "POST", "/admin/businesses/{id}/api-keys")
		return
	}

	valid, err := h.store.ValidateBusiness(r.Context(), businessID)
	if err != nil || !valid {
		h.respondError(w, http.StatusBadRequest, "Invalid business", "POST", "/admin/businesses/{id}/api-keys")
		return
	}

	raw, err := h.keys.IssueBusinessKey(r.Context(), businessID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/admin/businesses/{id}/api-keys")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"api_key": raw}, "POST", "/admin/businesses/{id}/api-keys")
}

// RotateAPIKey handles POST /admin/api-keys/{key_id}/rotate.
func (h *Handler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := pathID(r, "key_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid key id", "POST", "/admin/api-keys/{id}/rotate")
		return
	}

	var req struct {
		BusinessID int64 `json:"business_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/admin/api-keys/{id}/rotate")
		return
	}

	raw, err := h.keys.RotateBusinessKey(r.Context(), keyID, req.BusinessID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/admin/api-keys/{id}/rotate")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"api_key": raw}, "POST", "/admin/api-keys/{id}/rotate")
}

// RevokeAPIKey handles DELETE /admin/api-keys/{key_id}.
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := pathID(r, "key_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid key id", "DELETE", "/admin/api-keys/{id}")
		return
	}

	if err := h.keys.RevokeBusinessKey(r.Context(), keyID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "DELETE", "/admin/api-keys/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, "revoked", "DELETE", "/admin/api-keys/{id}")
}

// GenerateAdminAPIKey handles POST /admin/admin-api-keys.
func (h *Handler) GenerateAdminAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminID int64 `json:"admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/admin/admin-api-keys")
		return
	}

	raw, err := h.keys.IssueAdminKey(r.Context(), req.AdminID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/admin/admin-api-keys")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"api_key": raw}, "POST", "/admin/admin-api-keys")
}

// RevokeAdminAPIKey handles DELETE /admin/admin-api-keys/{key_id}.
func (h *Handler) RevokeAdminAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := pathID(r, "key_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid key id", "DELETE", "/admin/admin-api-keys/{id}")
		return
	}

	if err := h.keys.RevokeAdminKey(r.Context(), keyID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "DELETE", "/admin/admin-api-keys/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, "revoked", "DELETE", "/admin/admin-api-keys/{id}")
}

// BootstrapAdmin handles GET /_internal/bootstrap/admin. It creates the
// default admin exactly once; later calls return the existing id.
func (h *Handler) BootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.BootstrapAdmin(r.Context(), "default_admin")
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/_internal/bootstrap/admin")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]int64{"admin_id": id}, "GET", "/_internal/bootstrap/admin")
}

// GetBusinessAccount handles GET /get-business-account for an
// authenticated tenant.
func (h *Handler) GetBusinessAccount(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", "/get-business-account")
		return
	}

	business, err := h.store.GetBusiness(r.Context(), businessID)
	if err == pgx.ErrNoRows {
		h.respondError(w, http.StatusNotFound, "Business not found", "GET", "/get-business-account")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/get-business-account")
		return
	}
	h.respondJSON(w, http.StatusOK, business, "GET", "/get-business-account")
}
