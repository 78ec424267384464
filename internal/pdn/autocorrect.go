package pdn

import (
	"github.com/shopspring/decimal"

	dErrors "kreditomat/pkg/domain-errors"
)

// amountStep is the granularity of corrected loan amounts. Candidate amounts
// during the search and the final maximum are snapped to multiples of it.
var amountStep = decimal.NewFromInt(100_000)

// maxSearchIterations bounds the binary search. With amounts capped at 100M
// and a 100k step the search needs at most ~10 halvings; the cap only guards
// against a degenerate loop.
const maxSearchIterations = 64

// CorrectionType names one adjustment applied by AutoCorrect.
type CorrectionType string

const (
	CorrectionTermExtended  CorrectionType = "term_extended"
	CorrectionAmountReduced CorrectionType = "amount_reduced"
)

// Correction records a single adjustment step: what changed, from what, to
// what, and why.
type Correction struct {
	Type   CorrectionType  `json:"type"`
	From   decimal.Decimal `json:"from"`
	To     decimal.Decimal `json:"to"`
	Reason string          `json:"reason"`
}

// CorrectedTerms is the outcome of AutoCorrect: final terms, their
// affordability, and the ordered list of adjustments that produced them.
type CorrectedTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	TermMonths     int             `json:"term_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Ratio          decimal.Decimal `json:"pdn"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Corrected      bool            `json:"corrected"`
	Corrections    []Correction    `json:"corrections"`
}

// AutoCorrect adjusts loan terms until the ratio fits the target.
//
// The order is fixed: keep the requested terms if they already fit, otherwise
// extend the term to the maximum, and only then reduce the amount by binary
// search in 100k steps, settling on the lower bound so the result never
// overshoots the target.
func (e *Engine) AutoCorrect(amount, annualRate decimal.Decimal, termMonths int, income, otherPayments decimal.Decimal) (CorrectedTerms, error) {
	if err := e.calc.ValidateTerms(amount, termMonths); err != nil {
		return CorrectedTerms{}, err
	}

	assessment, err := e.Assess(amount, annualRate, termMonths, income, otherPayments)
	if err != nil {
		return CorrectedTerms{}, err
	}

	if assessment.WithinTarget {
		return CorrectedTerms{
			Amount:         amount,
			TermMonths:     termMonths,
			MonthlyPayment: assessment.MonthlyPayment,
			Ratio:          assessment.Ratio,
			RiskLevel:      assessment.RiskLevel,
			Corrected:      false,
			Corrections:    []Correction{},
		}, nil
	}

	var corrections []Correction
	correctedAmount := amount
	correctedMonths := termMonths

	maxTerm := e.calc.Bounds().MaxTermMonths
	if termMonths < maxTerm {
		correctedMonths = maxTerm
		assessment, err = e.Assess(amount, annualRate, correctedMonths, income, otherPayments)
		if err != nil {
			return CorrectedTerms{}, err
		}
		corrections = append(corrections, Correction{
			Type:   CorrectionTermExtended,
			From:   decimal.NewFromInt(int64(termMonths)),
			To:     decimal.NewFromInt(int64(correctedMonths)),
			Reason: "payment ratio exceeds target",
		})

		if assessment.WithinTarget {
			return CorrectedTerms{
				Amount:         correctedAmount,
				TermMonths:     correctedMonths,
				MonthlyPayment: assessment.MonthlyPayment,
				Ratio:          assessment.Ratio,
				RiskLevel:      assessment.RiskLevel,
				Corrected:      true,
				Corrections:    corrections,
			}, nil
		}
	}

	maxPayment := income.Mul(e.target).Div(hundred).Sub(otherPayments)
	if maxPayment.LessThanOrEqual(decimal.Zero) {
		return CorrectedTerms{}, dErrors.Wrap(ErrUnaffordableLoan, dErrors.CodeUnaffordable,
			"cannot afford any loan with current income and obligations")
	}

	lo := e.calc.Bounds().MinAmount
	hi := correctedAmount
	for i := 0; i < maxSearchIterations && hi.Sub(lo).GreaterThan(amountStep); i++ {
		mid := snapToStep(lo.Add(hi).Div(two))
		if mid.LessThanOrEqual(lo) || mid.GreaterThanOrEqual(hi) {
			break
		}
		midAssessment, err := e.Assess(mid, annualRate, correctedMonths, income, otherPayments)
		if err != nil {
			return CorrectedTerms{}, err
		}
		if midAssessment.WithinTarget {
			lo = mid
		} else {
			hi = mid
		}
	}

	// Lower bound keeps the final ratio at or under the target whenever any
	// amount in the searched range fits.
	correctedAmount = lo
	assessment, err = e.Assess(correctedAmount, annualRate, correctedMonths, income, otherPayments)
	if err != nil {
		return CorrectedTerms{}, err
	}

	corrections = append(corrections, Correction{
		Type:   CorrectionAmountReduced,
		From:   amount,
		To:     correctedAmount,
		Reason: "payment ratio exceeds target even with extended term",
	})

	return CorrectedTerms{
		Amount:         correctedAmount,
		TermMonths:     correctedMonths,
		MonthlyPayment: assessment.MonthlyPayment,
		Ratio:          assessment.Ratio,
		RiskLevel:      assessment.RiskLevel,
		Corrected:      true,
		Corrections:    corrections,
	}, nil
}

// MaxLoanAmount inverts the annuity formula to find the largest principal
// whose payment keeps the ratio at the target.
//
//	P = PMT * ((1+r)^n - 1) / (r * (1+r)^n)
//
// The result is snapped to the amount step and clamped to the loan bounds.
// A non-positive payment budget yields zero.
func (e *Engine) MaxLoanAmount(annualRate decimal.Decimal, termMonths int, income, otherPayments decimal.Decimal) decimal.Decimal {
	maxPayment := income.Mul(e.target).Div(hundred).Sub(otherPayments)
	if maxPayment.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	months := decimal.NewFromInt(int64(termMonths))
	monthlyRate := annualRate.Div(hundred).Div(decimal.NewFromInt(12))

	var maxAmount decimal.Decimal
	if monthlyRate.IsZero() {
		maxAmount = maxPayment.Mul(months)
	} else {
		ratePower := decimal.NewFromInt(1).Add(monthlyRate).Pow(months)
		maxAmount = maxPayment.Mul(ratePower.Sub(decimal.NewFromInt(1))).Div(monthlyRate.Mul(ratePower))
	}

	maxAmount = snapToStep(maxAmount)
	bounds := e.calc.Bounds()
	if maxAmount.GreaterThan(bounds.MaxAmount) {
		maxAmount = bounds.MaxAmount
	}
	if maxAmount.LessThan(bounds.MinAmount) {
		maxAmount = bounds.MinAmount
	}
	return maxAmount
}

// snapToStep rounds half-up to the nearest multiple of amountStep.
func snapToStep(d decimal.Decimal) decimal.Decimal {
	return d.Div(amountStep).Round(0).Mul(amountStep)
}
