package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CreateAccount handles POST /accounts/.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "POST", "/accounts")
		return
	}

	var req domain.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/accounts")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(w, http.StatusBadRequest, "Account name is required", "POST", "/accounts")
		return
	}
	if len(req.Currency) != 3 {
		h.respondError(w, http.StatusBadRequest, "Invalid currency code", "POST", "/accounts")
		return
	}

	id, err := h.store.CreateAccount(r.Context(), businessID, req)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/accounts")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]int64{"account_id": id}, "POST", "/accounts")
}

// ListAccounts handles GET /accounts/.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", "/accounts")
		return
	}

	accounts, err := h.store.GetAccountsByBusiness(r.Context(), businessID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/accounts")
		return
	}
	h.respondJSON(w, http.StatusOK, accounts, "GET", "/accounts")
}

// ownedAccountID parses the path id and checks the account belongs to
// the authenticated business.
func (h *Handler) ownedAccountID(w http.ResponseWriter, r *http.Request, endpoint string) (int64, bool) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", endpoint)
		return 0, false
	}

	accountID, err := pathID(r, "account_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid account id", "GET", endpoint)
		return 0, false
	}

	owned, err := h.store.ValidateAccountOwnership(r.Context(), businessID, accountID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", endpoint)
		return 0, false
	}
	if !owned {
		h.respondError(w, http.StatusForbidden, "Unauthorized account", "GET", endpoint)
		return 0, false
	}
	return accountID, true
}

// GetAccount handles GET /accounts/{account_id}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownedAccountID(w, r, "/accounts/{id}")
	if !ok {
		return
	}

	account, err := h.store.GetAccount(r.Context(), accountID)
	if err == pgx.ErrNoRows {
		h.respondError(w, http.StatusNotFound, "Account not found", "GET", "/accounts/{id}")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/accounts/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, account, "GET", "/accounts/{id}")
}

// GetAccountBalance handles GET /accounts/{account_id}/balance.
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.ownedAccountID(w, r, "/accounts/{id}/balance")
	if !ok {
		return
	}

	balance, err := h.store.GetAccountBalance(r.Context(), accountID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/accounts/{id}/balance")
		return
	}
	h.respondJSON(w, http.StatusOK, balance, "GET", "/accounts/{id}/balance")
}
