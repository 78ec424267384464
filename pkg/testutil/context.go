package testutil

import (
	"context"
	"net/http"

	"kreditomat/internal/platform/middleware"
)

// WithUserID adds an authenticated user ID to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// WithAuth adds user ID and phone to the request context. This is the typical
// state for an authenticated request.
func WithAuth(req *http.Request, userID, phone string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	}
	if phone != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyPhone, phone)
	}
	return req.WithContext(ctx)
}

