package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full route tree. Tenant families sit behind the
// business auth middleware, /admin behind the admin one; the rate
// limiter wraps everything.
func NewRouter(h *Handler, auth *AuthMiddleware, limiter *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(limiter.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/_internal/bootstrap/admin", h.BootstrapAdmin).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Admin)
	admin.HandleFunc("/businesses", h.CreateBusiness).Methods("POST")
	admin.HandleFunc("/businesses", h.ListBusinesses).Methods("GET")
	admin.HandleFunc("/businesses/{business_id}/api-keys", h.GenerateAPIKey).Methods("POST")
	admin.HandleFunc("/api-keys/{key_id}/rotate", h.RotateAPIKey).Methods("POST")
	admin.HandleFunc("/api-keys/{key_id}", h.RevokeAPIKey).Methods("DELETE")
	admin.HandleFunc("/admin-api-keys", h.GenerateAdminAPIKey).Methods("POST")
	admin.HandleFunc("/admin-api-keys/{key_id}", h.RevokeAdminAPIKey).Methods("DELETE")

	business := r.NewRoute().Subrouter()
	business.Use(auth.Business)
	business.HandleFunc("/get-business-account", h.GetBusinessAccount).Methods("GET")

	accounts := business.PathPrefix("/accounts").Subrouter()
	accounts.HandleFunc("", h.ListAccounts).Methods("GET")
	accounts.HandleFunc("", h.CreateAccount).Methods("POST")
	accounts.HandleFunc("/{account_id}", h.GetAccount).Methods("GET")
	accounts.HandleFunc("/{account_id}/balance", h.GetAccountBalance).Methods("GET")

	transactions := business.PathPrefix("/transaction").Subrouter()
	transactions.HandleFunc("/credit", h.Credit).Methods("POST")
	transactions.HandleFunc("/debit", h.Debit).Methods("POST")
	transactions.HandleFunc("/transfer", h.Transfer).Methods("POST")
	transactions.HandleFunc("", h.ListTransactions).Methods("GET")
	transactions.HandleFunc("/{transaction_id}", h.GetTransaction).Methods("GET")

	webhooks := business.PathPrefix("/webhooks").Subrouter()
	webhooks.HandleFunc("", h.ListWebhooks).Methods("GET")
	webhooks.HandleFunc("", h.RegisterWebhook).Methods("POST")
	webhooks.HandleFunc("/{webhook_id}", h.UpdateWebhook).Methods("PUT")
	webhooks.HandleFunc("/{webhook_id}", h.DeleteWebhook).Methods("DELETE")

	return r
}
