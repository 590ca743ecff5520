package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter(keys map[string]string) http.Handler {
	r := chi.NewRouter()
	r.Use(APIKeyAuth(keys))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(RequireValidTenant)
		rt.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(GetTenantFromContext(r.Context())))
		})
	})
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	h := newAuthRouter(map[string]string{"acme": "secret-a", "beta": "secret-b"})

	cases := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"missing header", "/v1/acme/ping", "", http.StatusUnauthorized},
		{"wrong key", "/v1/acme/ping", "Bearer nope", http.StatusUnauthorized},
		{"bearer key", "/v1/acme/ping", "Bearer secret-a", http.StatusOK},
		{"bare key", "/v1/acme/ping", "secret-a", http.StatusOK},
		{"other tenant", "/v1/acme/ping", "Bearer secret-b", http.StatusForbidden},
		{"bad tenant", "/v1/bad$tenant/ping", "Bearer secret-a", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := newAuthRouter(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/acme/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
