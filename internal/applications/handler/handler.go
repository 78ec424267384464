// Package handler exposes the loan application endpoints. Everything except
// the anonymous pre-check requires a bearer token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kreditomat/internal/applications/models"
	offermodels "kreditomat/internal/offers/models"
	"kreditomat/internal/platform/middleware"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// Service defines the application operations the handler needs.
type Service interface {
	Create(ctx context.Context, userID id.UserID, req models.CreateRequest, device models.DeviceContext) (*models.Application, error)
	PreCheck(ctx context.Context, req models.PreCheckRequest) (*models.PreCheckResult, error)
	List(ctx context.Context, userID id.UserID, status *models.Status, page, limit int) (*models.ListResult, error)
	Get(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.Application, error)
	ScoreReport(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.ScoreReport, error)
	Offers(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*offermodels.MatchResult, error)
	Cancel(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.Application, error)
}

// DeviceResolver captures the device context of an incoming request.
type DeviceResolver interface {
	Resolve(r *http.Request) models.DeviceContext
}

// Handler serves the application routes.
type Handler struct {
	logger       *slog.Logger
	applications Service
	devices      DeviceResolver
	validator    middleware.TokenValidator
}

func New(applications Service, devices DeviceResolver, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		applications: applications,
		devices:      devices,
		validator:    validator,
	}
}

// Register mounts the application routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/pre-check", h.handlePreCheck)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/", h.handleCreate)
			r.Get("/", h.handleList)
			r.Get("/{applicationID}", h.handleGet)
			r.Get("/{applicationID}/score", h.handleScore)
			r.Get("/{applicationID}/offers", h.handleOffers)
			r.Post("/{applicationID}/cancel", h.handleCancel)
		})
	})
}

func (h *Handler) handlePreCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.PreCheckRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.applications.PreCheck(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, "pre-check failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req, decoded := httputil.Decode[models.CreateRequest](w, r, h.logger)
	if !decoded {
		return
	}

	app, err := h.applications.Create(r.Context(), userID, req, h.devices.Resolve(r))
	if err != nil {
		h.writeError(w, r, err, "failed to create application")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var status *models.Status
	if raw := q.Get("status"); raw != "" {
		st := models.Status(raw)
		if !st.IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid status"))
			return
		}
		status = &st
	}

	page := intQuery(q.Get("page"), 1)
	limit := intQuery(q.Get("limit"), 10)

	result, err := h.applications.List(r.Context(), userID, status, page, limit)
	if err != nil {
		h.writeError(w, r, err, "failed to list applications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, appID, ok := h.target(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Get(r.Context(), userID, appID)
	if err != nil {
		h.writeError(w, r, err, "failed to get application")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	userID, appID, ok := h.target(w, r)
	if !ok {
		return
	}

	report, err := h.applications.ScoreReport(r.Context(), userID, appID)
	if err != nil {
		h.writeError(w, r, err, "failed to build score report")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleOffers(w http.ResponseWriter, r *http.Request) {
	userID, appID, ok := h.target(w, r)
	if !ok {
		return
	}

	matches, err := h.applications.Offers(r.Context(), userID, appID)
	if err != nil {
		h.writeError(w, r, err, "failed to match offers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID, appID, ok := h.target(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Cancel(r.Context(), userID, appID)
	if err != nil {
		h.writeError(w, r, err, "failed to cancel application")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
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

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (id.UserID, id.ApplicationID, bool) {
	userID, ok := h.userID(w, r)
	if !ok {
		return id.UserID{}, id.ApplicationID{}, false
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return id.UserID{}, id.ApplicationID{}, false
	}
	return userID, appID, true
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

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
