// Package pdn implements the payment-to-income (PDN) affordability engine:
// ratio calculation, risk tiers, automatic correction of unaffordable terms
// and scenario analysis with alternatives.
package pdn

import (
	"errors"

	"github.com/shopspring/decimal"

	"kreditomat/internal/calculator"
	dErrors "kreditomat/pkg/domain-errors"
)

var (
	// ErrInvalidIncome marks a non-positive monthly income.
	ErrInvalidIncome = errors.New("monthly income must be positive")
	// ErrUnaffordableLoan means no loan within bounds fits the target ratio.
	ErrUnaffordableLoan = errors.New("no affordable loan for current income and obligations")
)

// RiskLevel classifies a PDN ratio.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"      // below 30%
	RiskMedium   RiskLevel = "medium"   // 30% to 50%
	RiskHigh     RiskLevel = "high"     // 50% to 65%
	RiskCritical RiskLevel = "critical" // 65% and above
)

var (
	riskLowCeiling    = decimal.NewFromInt(30)
	riskMediumCeiling = decimal.NewFromInt(50)
	riskHighCeiling   = decimal.NewFromInt(65)
	hundred           = decimal.NewFromInt(100)
	two               = decimal.NewFromInt(2)
)

// RiskFor maps a ratio to its risk level. Boundaries belong to the higher
// tier: exactly 30 is medium, exactly 50 is high, exactly 65 is critical.
func RiskFor(ratio decimal.Decimal) RiskLevel {
	switch {
	case ratio.LessThan(riskLowCeiling):
		return RiskLow
	case ratio.LessThan(riskMediumCeiling):
		return RiskMedium
	case ratio.LessThan(riskHighCeiling):
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Description returns a human-readable summary of the risk level.
func (r RiskLevel) Description() string {
	switch r {
	case RiskLow:
		return "Low risk: comfortable debt load"
	case RiskMedium:
		return "Medium risk: acceptable debt load"
	case RiskHigh:
		return "High risk: significant debt load"
	case RiskCritical:
		return "Critical risk: excessive debt load"
	default:
		return "Unknown risk level"
	}
}

// Engine evaluates affordability against a target PDN ratio. All pricing is
// delegated to the loan calculator so both layers stay consistent.
type Engine struct {
	calc   *calculator.Calculator
	target decimal.Decimal
}

// New constructs an Engine with the given calculator and target ratio in
// percent.
func New(calc *calculator.Calculator, target decimal.Decimal) *Engine {
	return &Engine{calc: calc, target: target}
}

// Target returns the configured target ratio in percent.
func (e *Engine) Target() decimal.Decimal {
	return e.target
}

// Ratio computes the payment-to-income ratio as a percentage, rounded half-up
// to two decimal places.
//
//	PDN = (monthly_payment + other_payments) / income * 100
func (e *Engine) Ratio(monthlyPayment, income, otherPayments decimal.Decimal) (decimal.Decimal, error) {
	if income.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, dErrors.Wrap(ErrInvalidIncome, dErrors.CodeInvalidInput, "monthly income must be positive")
	}
	return monthlyPayment.Add(otherPayments).Div(income).Mul(hundred).Round(2), nil
}

// Assessment is the affordability picture for one set of loan terms.
type Assessment struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Ratio          decimal.Decimal `json:"pdn"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	WithinTarget   bool            `json:"within_target"`
}

// Assess prices the terms and classifies the resulting ratio.
func (e *Engine) Assess(amount, annualRate decimal.Decimal, termMonths int, income, otherPayments decimal.Decimal) (Assessment, error) {
	payment, err := e.calc.MonthlyPayment(amount, annualRate, termMonths)
	if err != nil {
		return Assessment{}, err
	}
	ratio, err := e.Ratio(payment, income, otherPayments)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		MonthlyPayment: payment,
		Ratio:          ratio,
		RiskLevel:      RiskFor(ratio),
		WithinTarget:   ratio.LessThanOrEqual(e.target),
	}, nil
}
