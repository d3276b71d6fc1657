package middleware

import (
	"context"
	"net/http"
	"strings"

	"property-backend/internal/auth"
	"property-backend/pkg/utils"
)

type contextKey string

const (
	LandlordIDKey contextKey = "landlord_id"
	EmailKey      contextKey = "email"
)

// TokenValidator is satisfied by *auth.JWTManager
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and puts the landlord into the
// request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := WithLandlord(r.Context(), claims.LandlordID, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLandlord stores the authenticated landlord in ctx
func WithLandlord(ctx context.Context, landlordID int, email string) context.Context {
	ctx = context.WithValue(ctx, LandlordIDKey, landlordID)
	return context.WithValue(ctx, EmailKey, email)
}

// LandlordIDFromContext extracts the landlord ID set by Authenticate
func LandlordIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(LandlordIDKey).(int)
	return id, ok && id > 0
}

func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
