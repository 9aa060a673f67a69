package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/service"
)

// Authenticator resolves raw bearer tokens to principal ids.
type Authenticator interface {
	VerifyBusinessKey(ctx context.Context, raw string) (int64, error)
	VerifyAdminKey(ctx context.Context, raw string) (int64, error)
}

type contextKey int

const (
	businessIDKey contextKey = iota
	adminIDKey
)

// BusinessID returns the tenant id the auth middleware attached to the
// request context. Handlers never trust ids from the request body.
func BusinessID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(businessIDKey).(int64)
	return id, ok
}

func AdminID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// AuthMiddleware guards the tenant route families. Every failure is a
// uniform 401 with no detail.
type AuthMiddleware struct {
	auth Authenticator
	log  *zap.Logger
}

func NewAuthMiddleware(auth Authenticator, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, log: log}
}

func (m *AuthMiddleware) unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"unauthenticated"}`))
}

func (m *AuthMiddleware) Business(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.unauthenticated(w)
			return
		}
		businessID, err := m.auth.VerifyBusinessKey(r.Context(), token)
		if err != nil {
			if err != service.ErrUnauthenticated {
				m.log.Error("business key verification failed", zap.Error(err))
			}
			m.unauthenticated(w)
			return
		}
		ctx := context.WithValue(r.Context(), businessIDKey, businessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.unauthenticated(w)
			return
		}
		adminID, err := m.auth.VerifyAdminKey(r.Context(), token)
		if err != nil {
			if err != service.ErrUnauthenticated {
				m.log.Error("admin key verification failed", zap.Error(err))
			}
			m.unauthenticated(w)
			return
		}
		ctx := context.WithValue(r.Context(), adminIDKey, adminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
