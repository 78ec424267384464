package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	UserID string
	Phone  string
}

// Context keys for storing authenticated request information.
type contextKeyUserID struct{}
type contextKeyPhone struct{}
type contextKeyToken struct{}
type contextKeyRequestID struct{}

var (
	ContextKeyUserID    = contextKeyUserID{}
	ContextKeyPhone     = contextKeyPhone{}
	ContextKeyToken     = contextKeyToken{}
	ContextKeyRequestID = contextKeyRequestID{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetPhone retrieves the authenticated phone number from the context.
func GetPhone(ctx context.Context) string {
	phone, ok := ctx.Value(ContextKeyPhone).(string)
	if !ok {
		return ""
	}
	return phone
}

// GetToken retrieves the raw bearer token from the context.
func GetToken(ctx context.Context) string {
	token, ok := ctx.Value(ContextKeyToken).(string)
	if !ok {
		return ""
	}
	return token
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	if !ok {
		return ""
	}
	return id
}

// RequireAuth validates the Authorization bearer token and stores the
// resulting claims in the request context. Requests without a valid token
// get a 401 with the standard error envelope.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			ctx := r.Context()
			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyPhone, claims.Phone)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
