package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"property-backend/internal/auth"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{LandlordID: 7, Email: "owner@example.com"}, nil
}

func TestAuthenticate(t *testing.T) {
	var seen int
	h := NewAuthMiddleware(stubTokens{}).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = LandlordIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusNoContent},
		{"lowercase scheme", "bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, "/api/leases/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, 7, seen)
			} else {
				assert.Zero(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestLandlordIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := LandlordIDFromContext(req.Context())
	assert.False(t, ok)

	ctx := WithLandlord(req.Context(), 3, "x@y.z")
	id, ok := LandlordIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, id)
	email, _ := EmailFromContext(ctx)
	assert.Equal(t, "x@y.z", email)
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestRouteNameUsesTemplate(t *testing.T) {
	var name string
	r := mux.NewRouter()
	r.HandleFunc("/api/leases/{id}", func(w http.ResponseWriter, req *http.Request) {
		name = routeName(req)
	})
	r.Use(MetricsMiddleware)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leases/42", nil))
	assert.Equal(t, "/api/leases/{id}", name)

	assert.Equal(t, "unmatched", routeName(httptest.NewRequest(http.MethodGet, "/x", nil)))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", clientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.3")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}

func TestShouldSkipLogging(t *testing.T) {
	assert.True(t, shouldSkipLogging("/health"))
	assert.True(t, shouldSkipLogging("/health/ready"))
	assert.True(t, shouldSkipLogging("/metrics"))
	assert.False(t, shouldSkipLogging("/api/payments/1"))
}
