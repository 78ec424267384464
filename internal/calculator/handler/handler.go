// Package handler exposes the public loan calculator endpoints. No
// authentication required.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kreditomat/internal/calculator"
	"kreditomat/internal/pdn"
	"kreditomat/internal/platform/middleware"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// CalcRequest prices a loan. A zero annual rate defaults to the platform rate.
type CalcRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	AnnualRate decimal.Decimal `json:"annual_rate,omitempty"`
	TermMonths int             `json:"term_months"`
}

// PDNRequest runs the affordability check with auto-correction.
type PDNRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	AnnualRate           decimal.Decimal `json:"annual_rate,omitempty"`
	TermMonths           int             `json:"term_months"`
	MonthlyIncome        decimal.Decimal `json:"monthly_income"`
	OtherMonthlyPayments decimal.Decimal `json:"other_monthly_payments"`
}

// PDNOriginal is the affordability of the terms as requested, before any
// correction.
type PDNOriginal struct {
	Amount         decimal.Decimal `json:"amount"`
	TermMonths     int             `json:"term_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Ratio          decimal.Decimal `json:"pdn"`
	RiskLevel      pdn.RiskLevel   `json:"risk_level"`
}

// PDNResponse pairs the requested terms with the corrected ones and the full
// scenario analysis.
type PDNResponse struct {
	Original  PDNOriginal          `json:"original"`
	Corrected pdn.CorrectedTerms   `json:"corrected"`
	Analysis  pdn.ScenarioAnalysis `json:"analysis"`
}

// MaxAmountResponse is the largest affordable principal for the given income.
type MaxAmountResponse struct {
	MaxAmount  decimal.Decimal `json:"max_amount"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
	TermMonths int             `json:"term_months"`
	PDNTarget  decimal.Decimal `json:"pdn_target"`
}

// Handler serves the calculator endpoints.
type Handler struct {
	logger      *slog.Logger
	calc        *calculator.Calculator
	engine      *pdn.Engine
	defaultRate decimal.Decimal
}

func New(calc *calculator.Calculator, engine *pdn.Engine, defaultRate decimal.Decimal, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, calc: calc, engine: engine, defaultRate: defaultRate}
}

// Register mounts the calculator routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Post("/", h.handleCalculate)
		r.Post("/pdn", h.handlePDN)
		r.Get("/max-amount", h.handleMaxAmount)
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[CalcRequest](w, r, h.logger)
	if !ok {
		return
	}
	rate := req.AnnualRate
	if rate.IsZero() {
		rate = h.defaultRate
	}

	calc, err := h.calc.Compute(calculator.Terms{
		Amount:     req.Amount,
		AnnualRate: rate,
		TermMonths: req.TermMonths,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to calculate loan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, calc)
}

func (h *Handler) handlePDN(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[PDNRequest](w, r, h.logger)
	if !ok {
		return
	}
	if !req.MonthlyIncome.IsPositive() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "monthly income must be positive"))
		return
	}
	if req.OtherMonthlyPayments.IsNegative() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "other monthly payments cannot be negative"))
		return
	}
	rate := req.AnnualRate
	if rate.IsZero() {
		rate = h.defaultRate
	}

	original, err := h.engine.Assess(req.Amount, rate, req.TermMonths, req.MonthlyIncome, req.OtherMonthlyPayments)
	if err != nil {
		h.writeError(w, r, err, "failed to assess affordability")
		return
	}
	corrected, err := h.engine.AutoCorrect(req.Amount, rate, req.TermMonths, req.MonthlyIncome, req.OtherMonthlyPayments)
	if err != nil {
		h.writeError(w, r, err, "failed to correct loan terms")
		return
	}
	analysis, err := h.engine.AnalyzeScenario(req.Amount, rate, req.TermMonths, req.MonthlyIncome, req.OtherMonthlyPayments)
	if err != nil {
		h.writeError(w, r, err, "failed to analyze affordability scenario")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PDNResponse{
		Original: PDNOriginal{
			Amount:         req.Amount,
			TermMonths:     req.TermMonths,
			MonthlyPayment: original.MonthlyPayment,
			Ratio:          original.Ratio,
			RiskLevel:      original.RiskLevel,
		},
		Corrected: corrected,
		Analysis:  analysis,
	})
}

func (h *Handler) handleMaxAmount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	income, err := decimal.NewFromString(q.Get("monthly_income"))
	if err != nil || !income.IsPositive() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid monthly_income"))
		return
	}

	otherPayments := decimal.Zero
	if raw := q.Get("other_monthly_payments"); raw != "" {
		otherPayments, err = decimal.NewFromString(raw)
		if err != nil || otherPayments.IsNegative() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid other_monthly_payments"))
			return
		}
	}

	months := h.calc.Bounds().MaxTermMonths
	if raw := q.Get("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid months"))
			return
		}
	}

	rate := h.defaultRate
	if raw := q.Get("annual_rate"); raw != "" {
		rate, err = decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid annual_rate"))
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, MaxAmountResponse{
		MaxAmount:  h.engine.MaxLoanAmount(rate, months, income, otherPayments),
		AnnualRate: rate,
		TermMonths: months,
		PDNTarget:  h.engine.Target(),
	})
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
