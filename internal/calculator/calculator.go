// Package calculator implements the annuity loan calculator. All functions
// are pure: a Calculation is derived deterministically from its Terms and the
// configured bounds, never mutated, always recomputed.
package calculator

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"kreditomat/internal/platform/config"
	dErrors "kreditomat/pkg/domain-errors"
)

// ErrInvalidParameters marks amount/term validation failures. Callers can
// match it with errors.Is regardless of the specific violation message.
var ErrInvalidParameters = errors.New("invalid loan parameters")

var (
	one        = decimal.NewFromInt(1)
	twelve     = decimal.NewFromInt(12)
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// Terms are the validated inputs of a loan calculation.
type Terms struct {
	Amount     decimal.Decimal
	AnnualRate decimal.Decimal // percent, e.g. 24 for 24% a year
	TermMonths int
}

// Calculation is the immutable result of pricing a loan.
//
// EffectiveRate is intentionally the simplified linear approximation
// (total interest / principal / years), not an IRR; downstream consumers and
// historical data depend on this exact figure.
type Calculation struct {
	Amount             decimal.Decimal `json:"amount"`
	AnnualRate         decimal.Decimal `json:"annual_rate"`
	TermMonths         int             `json:"term_months"`
	MonthlyPayment     decimal.Decimal `json:"monthly_payment"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	Overpayment        decimal.Decimal `json:"overpayment"`
	OverpaymentPercent decimal.Decimal `json:"overpayment_percentage"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	DailyRate          decimal.Decimal `json:"daily_rate"`
}

// Calculator validates terms against the system bounds and prices loans.
type Calculator struct {
	bounds config.Bounds
}

// New constructs a Calculator with the given loan bounds.
func New(bounds config.Bounds) *Calculator {
	return &Calculator{bounds: bounds}
}

// Bounds returns the configured loan limits.
func (c *Calculator) Bounds() config.Bounds {
	return c.bounds
}

// ValidateTerms checks amount and term against the system bounds. Violations
// are reported together, never silently clamped.
func (c *Calculator) ValidateTerms(amount decimal.Decimal, termMonths int) error {
	var violations []string

	if amount.LessThan(c.bounds.MinAmount) {
		violations = append(violations, "amount below the minimum loan amount "+c.bounds.MinAmount.String())
	} else if amount.GreaterThan(c.bounds.MaxAmount) {
		violations = append(violations, "amount above the maximum loan amount "+c.bounds.MaxAmount.String())
	}

	if termMonths < c.bounds.MinTermMonths {
		violations = append(violations, "term below the minimum loan term")
	} else if termMonths > c.bounds.MaxTermMonths {
		violations = append(violations, "term above the maximum loan term")
	}

	if len(violations) > 0 {
		return dErrors.Wrap(ErrInvalidParameters, dErrors.CodeInvalidInput, strings.Join(violations, "; "))
	}
	return nil
}

// MonthlyPayment computes the fixed annuity payment, rounded half-up to two
// decimal places.
//
//	PMT = P * (r * (1+r)^n) / ((1+r)^n - 1)
//
// where r is the monthly rate and n the number of months. A zero rate falls
// back to an even split of the principal.
func (c *Calculator) MonthlyPayment(amount, annualRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if termMonths <= 0 {
		return decimal.Zero, dErrors.Wrap(ErrInvalidParameters, dErrors.CodeInvalidInput, "loan term must be positive")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, dErrors.Wrap(ErrInvalidParameters, dErrors.CodeInvalidInput, "loan amount must be positive")
	}
	if annualRate.IsNegative() {
		return decimal.Zero, dErrors.Wrap(ErrInvalidParameters, dErrors.CodeInvalidInput, "annual rate cannot be negative")
	}

	months := decimal.NewFromInt(int64(termMonths))
	monthlyRate := annualRate.Div(hundred).Div(twelve)

	if monthlyRate.IsZero() {
		return amount.Div(months).Round(2), nil
	}

	ratePower := one.Add(monthlyRate).Pow(months)
	payment := amount.Mul(monthlyRate.Mul(ratePower)).Div(ratePower.Sub(one))
	return payment.Round(2), nil
}

// Compute validates terms against the bounds and derives the full
// Calculation. Rounding happens only at terminal outputs: two decimal places
// half-up for monetary values, four for the daily rate.
func (c *Calculator) Compute(terms Terms) (Calculation, error) {
	if err := c.ValidateTerms(terms.Amount, terms.TermMonths); err != nil {
		return Calculation{}, err
	}

	payment, err := c.MonthlyPayment(terms.Amount, terms.AnnualRate, terms.TermMonths)
	if err != nil {
		return Calculation{}, err
	}

	months := decimal.NewFromInt(int64(terms.TermMonths))
	totalCost := payment.Mul(months).Round(2)
	overpayment := totalCost.Sub(terms.Amount).Round(2)

	overpaymentPct := decimal.Zero
	if terms.Amount.IsPositive() {
		overpaymentPct = overpayment.Div(terms.Amount).Mul(hundred).Round(2)
	}

	// Simplified linear effective rate: (interest / principal) / years * 100.
	years := months.Div(twelve)
	effectiveRate := decimal.Zero
	if terms.Amount.IsPositive() && years.IsPositive() {
		effectiveRate = overpayment.Div(terms.Amount).Div(years).Mul(hundred).Round(2)
	}

	return Calculation{
		Amount:             terms.Amount,
		AnnualRate:         terms.AnnualRate,
		TermMonths:         terms.TermMonths,
		MonthlyPayment:     payment,
		TotalCost:          totalCost,
		Overpayment:        overpayment,
		OverpaymentPercent: overpaymentPct,
		EffectiveRate:      effectiveRate,
		DailyRate:          terms.AnnualRate.Div(daysInYear).Round(4),
	}, nil
}
