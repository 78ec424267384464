// Package handler exposes the authentication endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kreditomat/internal/auth/models"
	"kreditomat/internal/platform/middleware"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// Service defines the auth operations the handler needs.
type Service interface {
	RequestCode(ctx context.Context, phone string) (*models.MessageResponse, error)
	VerifyCode(ctx context.Context, phone, code string) (*models.AuthResponse, error)
	Logout(ctx context.Context, token string) (*models.MessageResponse, error)
	CheckPhone(ctx context.Context, phone string) (*models.PhoneCheck, error)
}

// Handler serves /auth. The OTP request route is expected to sit behind the
// per-phone rate limiter configured at the router level.
type Handler struct {
	logger *slog.Logger
	auth   Service
	limit  func(http.Handler) http.Handler
}

// New creates the auth handler. limit wraps the OTP request route; pass nil
// to disable rate limiting (tests, dev without Redis).
func New(auth Service, limit func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth, limit: limit}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		if h.limit != nil {
			r.With(h.limit).Post("/request", h.handleRequest)
		} else {
			r.Post("/request", h.handleRequest)
		}
		r.Post("/verify", h.handleVerify)
		r.Post("/logout", h.handleLogout)
		r.Get("/check-phone", h.handleCheckPhone)
	})
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.PhoneRequest](w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.auth.RequestCode(r.Context(), req.Phone)
	if err != nil {
		h.writeError(w, r, err, "failed to request verification code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.auth.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.writeError(w, r, err, "failed to verify code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}

	resp, err := h.auth.Logout(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err, "failed to log out")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCheckPhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "phone is required"))
		return
	}

	check, err := h.auth.CheckPhone(r.Context(), phone)
	if err != nil {
		h.writeError(w, r, err, "failed to check phone")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
