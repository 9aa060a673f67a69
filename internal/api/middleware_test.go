package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/service"
)

type fakeAuth struct {
	businessKeys map[string]int64
	adminKeys    map[string]int64
}

func (f *fakeAuth) VerifyBusinessKey(ctx context.Context, raw string) (int64, error) {
	if id, ok := f.businessKeys[raw]; ok {
		return id, nil
	}
	return 0, service.ErrUnauthenticated
}

func (f *fakeAuth) VerifyAdminKey(ctx context.Context, raw string) (int64, error) {
	if id, ok := f.adminKeys[raw]; ok {
		return id, nil
	}
	return 0, service.ErrUnauthenticated
}

func newTestAuth() *AuthMiddleware {
	return NewAuthMiddleware(&fakeAuth{
		businessKeys: map[string]int64{"dodo_live_good": 7},
		adminKeys:    map[string]int64{"dodo_live_admin": 1},
	}, zap.NewNop())
}

func TestBusinessAuthAttachesID(t *testing.T) {
	auth := newTestAuth()

	var gotID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = BusinessID(r.Context())
	})

	req := httptest.NewRequest("GET", "/accounts", nil)
	req.Header.Set("Authorization", "Bearer dodo_live_good")
	rec := httptest.NewRecorder()

	auth.Business(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, gotOK)
	assert.Equal(t, int64(7), gotID)
}

func TestBusinessAuthRejects(t *testing.T) {
	auth := newTestAuth()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	cases := map[string]func(r *http.Request){
		"missing header":   func(r *http.Request) {},
		"no bearer prefix": func(r *http.Request) { r.Header.Set("Authorization", "dodo_live_good") },
		"empty token":      func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"unknown key":      func(r *http.Request) { r.Header.Set("Authorization", "Bearer dodo_live_bad") },
		"admin key on business route": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer dodo_live_admin")
		},
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/accounts", nil)
			setup(req)
			rec := httptest.NewRecorder()

			auth.Business(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"unauthenticated"}`, rec.Body.String())
		})
	}
}

func TestAdminAuthDisjointFromBusiness(t *testing.T) {
	auth := newTestAuth()

	var gotID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = AdminID(r.Context())
	})

	req := httptest.NewRequest("POST", "/admin/businesses", nil)
	req.Header.Set("Authorization", "Bearer dodo_live_admin")
	rec := httptest.NewRecorder()
	auth.Admin(next).ServeHTTP(rec, req)
	assert.Equal(t, int64(1), gotID)

	// A business key never opens the admin surface.
	req = httptest.NewRequest("POST", "/admin/businesses", nil)
	req.Header.Set("Authorization", "Bearer dodo_live_good")
	rec = httptest.NewRecorder()
	auth.Admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
