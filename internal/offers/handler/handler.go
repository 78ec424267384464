// Package handler exposes the public bank offer endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kreditomat/internal/offers/models"
	"kreditomat/internal/platform/middleware"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// Service defines the offer operations the handler needs.
type Service interface {
	List(ctx context.Context, filter models.Filter, page, limit int) (*models.ListResult, error)
	Featured(ctx context.Context, limit int) ([]models.Offer, error)
	Get(ctx context.Context, offerID id.OfferID) (*models.Offer, error)
	Banks(ctx context.Context) ([]string, error)
	CalculateOffer(ctx context.Context, offerID id.OfferID, amount decimal.Decimal, termMonths int) (*models.Calculation, error)
	Compare(ctx context.Context, amount decimal.Decimal, termMonths int, score *int) (*models.Comparison, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// Handler serves the public offer catalog. No authentication required.
type Handler struct {
	logger *slog.Logger
	offers Service
}

func New(offers Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, offers: offers}
}

// Register mounts the offer routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/offers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/featured", h.handleFeatured)
		r.Get("/compare", h.handleCompare)
		r.Get("/banks/list", h.handleBanks)
		r.Get("/statistics/summary", h.handleStatistics)
		r.Get("/{offerID}", h.handleGet)
		r.Post("/{offerID}/calculate", h.handleCalculate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.Filter{
		BankName:   q.Get("bank_name"),
		OnlineOnly: q.Get("online_only") == "true",
		SortBy:     q.Get("sort_by"),
	}

	if raw := q.Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil || !amount.IsPositive() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid amount"))
			return
		}
		filter.Amount = &amount
	}
	if raw := q.Get("months"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid months"))
			return
		}
		filter.TermMonths = &months
	}
	if raw := q.Get("min_score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid min_score"))
			return
		}
		filter.MinScore = &score
	}
	if raw := q.Get("max_rate"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid max_rate"))
			return
		}
		filter.MaxRate = &rate
	}

	page := intQuery(q.Get("page"), 1)
	limit := intQuery(q.Get("limit"), 20)

	result, err := h.offers.List(r.Context(), filter, page, limit)
	if err != nil {
		h.writeError(w, r, err, "failed to list offers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r.URL.Query().Get("limit"), 5)
	featured, err := h.offers.Featured(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "failed to load featured offers")
		return
	}
	if featured == nil {
		featured = []models.Offer{}
	}
	httputil.WriteJSON(w, http.StatusOK, featured)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil || !amount.IsPositive() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid amount"))
		return
	}
	months, err := strconv.Atoi(q.Get("months"))
	if err != nil || months < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid months"))
		return
	}

	var score *int
	if raw := q.Get("score"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid score"))
			return
		}
		score = &v
	}

	comparison, err := h.offers.Compare(r.Context(), amount, months, score)
	if err != nil {
		h.writeError(w, r, err, "failed to compare offers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comparison)
}

func (h *Handler) handleBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.offers.Banks(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to list banks")
		return
	}
	if banks == nil {
		banks = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, banks)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.offers.Statistics(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to load offer statistics")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	offerID, err := id.ParseOfferID(chi.URLParam(r, "offerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "offer not found"))
		return
	}
	offer, err := h.offers.Get(r.Context(), offerID)
	if err != nil {
		h.writeError(w, r, err, "failed to get offer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, offer)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	offerID, err := id.ParseOfferID(chi.URLParam(r, "offerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "offer not found"))
		return
	}

	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil || !amount.IsPositive() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid amount"))
		return
	}
	months, err := strconv.Atoi(q.Get("months"))
	if err != nil || months < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid months"))
		return
	}

	calc, err := h.offers.CalculateOffer(r.Context(), offerID, amount, months)
	if err != nil {
		h.writeError(w, r, err, "failed to calculate offer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, calc)
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
