package api

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
	"github.com/punchamoorthee/dodoledger/internal/service"
)

// Credit handles POST /transaction/credit.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/transaction/credit"))
	defer timer.ObserveDuration()

	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "POST", "/transaction/credit")
		return
	}

	var req domain.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/transaction/credit")
		return
	}
	if msg, ok := validateMovement(req.Amount.IsPositive(), req.IdempotencyKey); !ok {
		h.respondError(w, http.StatusBadRequest, msg, "POST", "/transaction/credit")
		return
	}

	result, err := h.ledger.Credit(r.Context(), businessID, req)
	if err != nil {
		h.movementError(w, err, "POST", "/transaction/credit")
		return
	}
	h.movementSuccess(w, result, "POST", "/transaction/credit")
}

// Debit handles POST /transaction/debit.
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/transaction/debit"))
	defer timer.ObserveDuration()

	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "POST", "/transaction/debit")
		return
	}

	var req domain.DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/transaction/debit")
		return
	}
	if msg, ok := validateMovement(req.Amount.IsPositive(), req.IdempotencyKey); !ok {
		h.respondError(w, http.StatusBadRequest, msg, "POST", "/transaction/debit")
		return
	}

	result, err := h.ledger.Debit(r.Context(), businessID, req)
	if err != nil {
		h.movementError(w, err, "POST", "/transaction/debit")
		return
	}
	h.movementSuccess(w, result, "POST", "/transaction/debit")
}

// Transfer handles POST /transaction/transfer.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/transaction/transfer"))
	defer timer.ObserveDuration()

	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "POST", "/transaction/transfer")
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/transaction/transfer")
		return
	}
	if msg, ok := validateMovement(req.Amount.IsPositive(), req.IdempotencyKey); !ok {
		h.respondError(w, http.StatusBadRequest, msg, "POST", "/transaction/transfer")
		return
	}

	result, err := h.ledger.Transfer(r.Context(), businessID, req)
	if err != nil {
		h.movementError(w, err, "POST", "/transaction/transfer")
		return
	}
	h.movementSuccess(w, result, "POST", "/transaction/transfer")
}

func validateMovement(amountPositive bool, idempotencyKey string) (string, bool) {
	if !amountPositive {
		return "Amount must be positive", false
	}
	if idempotencyKey == "" {
		return "Missing idempotency_key", false
	}
	return "", true
}

// movementSuccess maps a fresh movement to 201 and an idempotent replay
// to 200 with the original transaction id.
func (h *Handler) movementSuccess(w http.ResponseWriter, result *service.MovementResult, method, endpoint string) {
	code := http.StatusCreated
	if result.Replay {
		code = http.StatusOK
	}
	h.respondJSON(w, code, map[string]int64{"txn_id": result.TxnID}, method, endpoint)
}

func (h *Handler) movementError(w http.ResponseWriter, err error, method, endpoint string) {
	switch err {
	case service.ErrFrozenAccount, service.ErrInsufficientFunds, service.ErrSameAccount:
		h.respondError(w, http.StatusBadRequest, err.Error(), method, endpoint)
	case service.ErrAccountNotFound:
		h.respondError(w, http.StatusNotFound, err.Error(), method, endpoint)
	case service.ErrNoWebhook:
		h.respondError(w, http.StatusNotFound, err.Error(), method, endpoint)
	default:
		h.log.Error("movement failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", method, endpoint)
	}
}

// ListTransactions handles GET /transaction/.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", "/transaction")
		return
	}

	txns, err := h.store.GetTransactionsByBusiness(r.Context(), businessID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, txns, "GET", "/transaction")
}

// GetTransaction handles GET /transaction/{transaction_id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "GET", "/transaction/{id}")
		return
	}

	txnID, err := pathID(r, "transaction_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction id", "GET", "/transaction/{id}")
		return
	}

	txn, err := h.store.GetTransaction(r.Context(), businessID, txnID)
	if err == pgx.ErrNoRows {
		h.respondError(w, http.StatusNotFound, "Transaction not found", "GET", "/transaction/{id}")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "GET", "/transaction/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, txn, "GET", "/transaction/{id}")
}
