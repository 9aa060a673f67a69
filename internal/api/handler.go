package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
	"github.com/punchamoorthee/dodoledger/internal/service"
	"github.com/punchamoorthee/dodoledger/internal/store"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Ledger is the money-movement engine as the handlers see it.
type Ledger interface {
	Credit(ctx context.Context, businessID int64, req domain.CreditRequest) (*service.MovementResult, error)
	Debit(ctx context.Context, businessID int64, req domain.DebitRequest) (*service.MovementResult, error)
	Transfer(ctx context.Context, businessID int64, req domain.TransferRequest) (*service.MovementResult, error)
}

// Keys covers issuance and lifecycle of API keys for the admin surface.
type Keys interface {
	IssueBusinessKey(ctx context.Context, businessID int64) (string, error)
	RotateBusinessKey(ctx context.Context, keyID, businessID int64) (string, error)
	RevokeBusinessKey(ctx context.Context, keyID int64) error
	IssueAdminKey(ctx context.Context, adminID int64) (string, error)
	RevokeAdminKey(ctx context.Context, keyID int64) error
}

type Handler struct {
	store  *store.Store
	ledger Ledger
	keys   Keys
	log    *zap.Logger
}

func NewHandler(s *store.Store, ledger Ledger, keys Keys, log *zap.Logger) *Handler {
	return &Handler{store: s, ledger: ledger, keys: keys, log: log}
}

// apiResponse is the uniform envelope for every JSON response.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, data interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
