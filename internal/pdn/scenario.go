package pdn

import (
	"github.com/shopspring/decimal"
)

var reducedAmountFactor = decimal.NewFromFloat(0.75)

// Scenario is one priced set of terms plus its affordability.
type Scenario struct {
	Description    string          `json:"description,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	TermMonths     int             `json:"term_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Ratio          decimal.Decimal `json:"pdn"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Benefit        string          `json:"benefit,omitempty"`
}

// IncomeAnalysis summarizes how much of the income is already committed.
type IncomeAnalysis struct {
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	OtherPayments     decimal.Decimal `json:"other_payments"`
	FreeIncome        decimal.Decimal `json:"free_income"`
	FreeIncomePercent decimal.Decimal `json:"free_income_percentage"`
}

// ScenarioAnalysis is the full affordability report for one requested loan.
type ScenarioAnalysis struct {
	Current             Scenario        `json:"current_scenario"`
	RiskDescription     string          `json:"risk_description"`
	Income              IncomeAnalysis  `json:"income_analysis"`
	MaxAffordableAmount decimal.Decimal `json:"max_affordable_amount"`
	Alternatives        []Scenario      `json:"alternatives"`
	Recommendations     []string        `json:"recommendations"`
}

// AnalyzeScenario prices the requested terms and builds alternatives: a
// maximum-term variant when the term can still grow, and a 75%-amount variant
// when the amount can still shrink. Recommendations follow the risk level of
// the requested terms.
func (e *Engine) AnalyzeScenario(amount, annualRate decimal.Decimal, termMonths int, income, otherPayments decimal.Decimal) (ScenarioAnalysis, error) {
	current, err := e.Assess(amount, annualRate, termMonths, income, otherPayments)
	if err != nil {
		return ScenarioAnalysis{}, err
	}

	bounds := e.calc.Bounds()
	var alternatives []Scenario

	if termMonths < bounds.MaxTermMonths {
		alt, err := e.Assess(amount, annualRate, bounds.MaxTermMonths, income, otherPayments)
		if err != nil {
			return ScenarioAnalysis{}, err
		}
		alternatives = append(alternatives, Scenario{
			Description:    "Extend the loan term to the maximum",
			Amount:         amount,
			TermMonths:     bounds.MaxTermMonths,
			MonthlyPayment: alt.MonthlyPayment,
			Ratio:          alt.Ratio,
			RiskLevel:      alt.RiskLevel,
			Benefit:        "Lower monthly payment",
		})
	}

	if amount.GreaterThan(bounds.MinAmount) {
		reduced := snapToStep(amount.Mul(reducedAmountFactor))
		if reduced.LessThan(bounds.MinAmount) {
			reduced = bounds.MinAmount
		}
		alt, err := e.Assess(reduced, annualRate, termMonths, income, otherPayments)
		if err != nil {
			return ScenarioAnalysis{}, err
		}
		alternatives = append(alternatives, Scenario{
			Description:    "Reduce the loan amount",
			Amount:         reduced,
			TermMonths:     termMonths,
			MonthlyPayment: alt.MonthlyPayment,
			Ratio:          alt.Ratio,
			RiskLevel:      alt.RiskLevel,
			Benefit:        "Lower debt load",
		})
	}

	freeIncome := income.Sub(otherPayments)
	freeIncomePct := decimal.Zero
	if income.IsPositive() {
		freeIncomePct = freeIncome.Div(income).Mul(hundred).Round(2)
	}

	return ScenarioAnalysis{
		Current: Scenario{
			Amount:         amount,
			TermMonths:     termMonths,
			MonthlyPayment: current.MonthlyPayment,
			Ratio:          current.Ratio,
			RiskLevel:      current.RiskLevel,
		},
		RiskDescription: current.RiskLevel.Description(),
		Income: IncomeAnalysis{
			MonthlyIncome:     income,
			OtherPayments:     otherPayments,
			FreeIncome:        freeIncome,
			FreeIncomePercent: freeIncomePct,
		},
		MaxAffordableAmount: e.MaxLoanAmount(annualRate, termMonths, income, otherPayments),
		Alternatives:        alternatives,
		Recommendations:     recommendationsFor(current.RiskLevel),
	}, nil
}

func recommendationsFor(level RiskLevel) []string {
	switch level {
	case RiskLow:
		return []string{
			"Your debt load is in the safe zone",
			"You may consider a larger loan amount",
		}
	case RiskMedium:
		return []string{
			"Your debt load is within an acceptable range",
			"We recommend not taking on additional debt",
		}
	case RiskHigh:
		return []string{
			"Your debt load is approaching the critical level",
			"Consider reducing the amount or extending the term",
			"Avoid taking on additional credit",
		}
	default:
		return []string{
			"Your debt load exceeds the safe level",
			"We strongly recommend reducing the loan amount",
			"Consider declining the loan",
		}
	}
}
