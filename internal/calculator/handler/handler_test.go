package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kreditomat/internal/calculator"
	"kreditomat/internal/pdn"
	"kreditomat/internal/platform/config"
)

type CalculatorHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestCalculatorHandlerSuite(t *testing.T) {
	suite.Run(t, new(CalculatorHandlerSuite))
}

func (s *CalculatorHandlerSuite) SetupTest() {
	calc := calculator.New(config.DefaultBounds())
	engine := pdn.New(calc, decimal.NewFromInt(50))
	h := New(calc, engine, decimal.NewFromInt(24), slog.Default())

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *CalculatorHandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *CalculatorHandlerSuite) TestCalculate() {
	rec := s.post("/calculator", `{"amount": 1000000, "term_months": 12}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var calc calculator.Calculation
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &calc))
	s.Equal(12, calc.TermMonths)
	s.True(calc.AnnualRate.Equal(decimal.NewFromInt(24)))
	s.True(calc.MonthlyPayment.IsPositive())
	s.True(calc.TotalCost.Equal(calc.MonthlyPayment.Mul(decimal.NewFromInt(12)).Round(2)))
}

func (s *CalculatorHandlerSuite) TestCalculateCustomRate() {
	rec := s.post("/calculator", `{"amount": 1000000, "annual_rate": 18, "term_months": 12}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var calc calculator.Calculation
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &calc))
	s.True(calc.AnnualRate.Equal(decimal.NewFromInt(18)))
}

func (s *CalculatorHandlerSuite) TestCalculateOutOfBounds() {
	rec := s.post("/calculator", `{"amount": 0, "term_months": 12}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.post("/calculator", `{"amount": 1000000, "term_months": 120}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CalculatorHandlerSuite) TestCalculateMalformedBody() {
	rec := s.post("/calculator", `{"amount": `)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CalculatorHandlerSuite) TestPDNAffordable() {
	rec := s.post("/calculator/pdn",
		`{"amount": 1000000, "term_months": 12, "monthly_income": 5000000, "other_monthly_payments": 0}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp PDNResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.False(resp.Corrected.Corrected)
	s.Equal(pdn.RiskLow, resp.Original.RiskLevel)
	s.True(resp.Analysis.MaxAffordableAmount.IsPositive())
	s.NotEmpty(resp.Analysis.Recommendations)
}

func (s *CalculatorHandlerSuite) TestPDNCorrected() {
	rec := s.post("/calculator/pdn",
		`{"amount": 20000000, "term_months": 6, "monthly_income": 1000000, "other_monthly_payments": 0}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp PDNResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Corrected.Corrected)
	s.NotEmpty(resp.Corrected.Corrections)
	s.True(resp.Corrected.Amount.LessThan(decimal.NewFromInt(20_000_000)))
	s.LessOrEqual(resp.Original.TermMonths, resp.Corrected.TermMonths)
}

func (s *CalculatorHandlerSuite) TestPDNInvalidIncome() {
	rec := s.post("/calculator/pdn",
		`{"amount": 1000000, "term_months": 12, "monthly_income": 0}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CalculatorHandlerSuite) TestMaxAmount() {
	req := httptest.NewRequest(http.MethodGet,
		"/calculator/max-amount?monthly_income=3000000&months=24", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp MaxAmountResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.MaxAmount.IsPositive())
	s.Equal(24, resp.TermMonths)
	s.True(resp.AnnualRate.Equal(decimal.NewFromInt(24)))
	s.True(resp.PDNTarget.Equal(decimal.NewFromInt(50)))
}

func (s *CalculatorHandlerSuite) TestMaxAmountMissingIncome() {
	req := httptest.NewRequest(http.MethodGet, "/calculator/max-amount", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}
