// Package handler exposes the referral program endpoints. All routes
// require authentication.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	authmodels "kreditomat/internal/auth/models"
	"kreditomat/internal/platform/middleware"
	"kreditomat/internal/referral/service"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// Service defines the referral operations the handler needs.
type Service interface {
	Code(ctx context.Context, userID id.UserID) (*service.CodeInfo, error)
	Validate(ctx context.Context, code string) (*authmodels.User, error)
	Apply(ctx context.Context, userID id.UserID, code string) error
	Stats(ctx context.Context, userID id.UserID) (*service.Stats, error)
}

// Handler serves the referral routes.
type Handler struct {
	logger    *slog.Logger
	referrals Service
	validator middleware.TokenValidator
}

func New(referrals Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, referrals: referrals, validator: validator}
}

// Register mounts the referral routes. Code validation is public so the
// landing page can check a code before the visitor registers.
func (h *Handler) Register(r chi.Router) {
	r.Route("/referrals", func(r chi.Router) {
		r.Get("/validate/{code}", h.handleValidate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Get("/code", h.handleCode)
			r.Get("/stats", h.handleStats)
			r.Post("/apply", h.handleApply)
		})
	})
}

func (h *Handler) handleCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	info, err := h.referrals.Code(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "failed to load referral code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	stats, err := h.referrals.Stats(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "failed to build referral stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, err := h.referrals.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInvalidInput {
			httputil.WriteJSON(w, http.StatusOK, validateResponse{
				Valid:   false,
				Message: "invalid or inactive referral code",
			})
			return
		}
		h.writeError(w, r, err, "failed to validate referral code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponse{
		Valid:       true,
		Message:     "valid referral code",
		BonusAmount: &service.ReferredBonus,
	})
}

type validateResponse struct {
	Valid       bool             `json:"valid"`
	Message     string           `json:"message"`
	BonusAmount *decimal.Decimal `json:"bonus_amount,omitempty"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req, decoded := httputil.Decode[struct {
		ReferralCode string `json:"referral_code"`
	}](w, r, h.logger)
	if !decoded {
		return
	}

	if err := h.referrals.Apply(r.Context(), userID, req.ReferralCode); err != nil {
		h.writeError(w, r, err, "failed to apply referral code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"applied": true})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "user ID missing from authenticated request",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
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
