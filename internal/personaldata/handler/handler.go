// Package handler exposes the borrower profile endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kreditomat/internal/personaldata/models"
	"kreditomat/internal/platform/middleware"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// Service defines the profile operations the handler needs.
type Service interface {
	GetByUserID(ctx context.Context, userID id.UserID) (*models.PersonalData, error)
	Save(ctx context.Context, userID id.UserID, req models.SaveRequest) (*models.PersonalData, error)
	Delete(ctx context.Context, userID id.UserID) error
	Completion(ctx context.Context, userID id.UserID) (*models.CompletionStatus, error)
	Summary(ctx context.Context, userID id.UserID) (*models.Summary, error)
}

// Handler serves the profile endpoints. All routes require authentication.
type Handler struct {
	logger    *slog.Logger
	profiles  Service
	validator middleware.TokenValidator
}

func New(profiles Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, profiles: profiles, validator: validator}
}

// Register mounts the profile routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/personal-data", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/", h.handleGet)
		r.Put("/", h.handleSave)
		r.Delete("/", h.handleDelete)
		r.Get("/completion", h.handleCompletion)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	data, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "failed to get personal data")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[models.SaveRequest](w, r, h.logger)
	if !ok {
		return
	}
	data, err := h.profiles.Save(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err, "failed to save personal data")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		h.writeError(w, r, err, "failed to delete personal data")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	status, err := h.profiles.Completion(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "failed to check profile completion")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summary, err := h.profiles.Summary(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "failed to build profile summary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInternal, "missing user in context"), "missing user in context")
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
