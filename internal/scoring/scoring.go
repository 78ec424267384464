// Package scoring implements the weighted multi-factor credit scoring model.
// Scores are computed from whatever factors are available; missing factors
// drop out of the weighting instead of dragging the score down.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kreditomat/internal/pdn"
	"kreditomat/internal/personaldata/models"
)

// Category buckets the scaled credit score.
type Category string

const (
	CategoryExcellent Category = "excellent" // 800-900
	CategoryGood      Category = "good"      // 700-799
	CategoryFair      Category = "fair"      // 600-699
	CategoryPoor      Category = "poor"      // 500-599
	CategoryVeryPoor  Category = "very_poor" // below 500
)

// Factor identifies one scoring input.
type Factor string

const (
	FactorAge           Factor = "age"
	FactorGender        Factor = "gender"
	FactorMaritalStatus Factor = "marital_status"
	FactorEducation     Factor = "education"
	FactorEmployment    Factor = "employment"
	FactorIncome        Factor = "income"
	FactorLiving        Factor = "living_arrangement"
	FactorPDN           Factor = "pdn"
	FactorLoanHistory   Factor = "loan_history"
	FactorReferral      Factor = "referral"
	FactorDeviceType    Factor = "device_type"
	FactorRegion        Factor = "region"
)

// Factor weights in percent. The PDN factor is always present; the rest
// contribute only when their data is available.
const (
	weightAge         = 15
	weightGender      = 5
	weightMarital     = 5
	weightEducation   = 10
	weightEmployment  = 20
	weightIncome      = 20
	weightLiving      = 5
	weightPDN         = 15
	weightLoanHistory = 10
	weightDevice      = 3
	weightRegion      = 2
)

const (
	referralBonus  = 50
	weakFactorBar  = 50
	scoreFloor     = 300
	scoreCeiling   = 900
	scoreMultiples = 6
)

var hundred = decimal.NewFromInt(100)

// LoanHistory summarizes the borrower's past loans.
type LoanHistory struct {
	TotalLoans   int `json:"total_loans"`
	ActiveLoans  int `json:"active_loans"`
	OverdueLoans int `json:"overdue_loans"`
}

// DeviceInfo is the device and location context captured at application time.
type DeviceInfo struct {
	DeviceType string `json:"device_type"`
	Region     string `json:"region"`
}

// Input gathers everything the model can score. Personal, History and Device
// are optional; PDNRisk is always required.
type Input struct {
	Personal    *models.PersonalData
	PDNRisk     pdn.RiskLevel
	History     *LoanHistory
	Device      *DeviceInfo
	HasReferral bool
}

// FactorScore is one factor's contribution to the total.
type FactorScore struct {
	Factor        Factor          `json:"factor"`
	Score         int             `json:"score"`
	Weight        int             `json:"weight"`
	WeightedScore decimal.Decimal `json:"weighted_score"`
	Reason        string          `json:"reason"`
}

// Result is the complete scoring outcome.
type Result struct {
	CreditScore         int             `json:"credit_score"` // 300 to 900
	Category            Category        `json:"category"`
	ApprovalProbability int             `json:"approval_probability"` // percent
	Factors             []FactorScore   `json:"factors"`
	WeightedScore       decimal.Decimal `json:"weighted_score"`
	HasReferralBonus    bool            `json:"has_referral_bonus"`
	CalculatedAt        time.Time       `json:"calculated_at"`
	Recommendations     []string        `json:"recommendations"`
}

type accumulator struct {
	factors     []FactorScore
	weightedSum decimal.Decimal
	totalWeight int64
}

func (a *accumulator) add(factor Factor, score, weight int, reason string) {
	weighted := decimal.NewFromInt(int64(score * weight)).Div(hundred)
	a.factors = append(a.factors, FactorScore{
		Factor:        factor,
		Score:         score,
		Weight:        weight,
		WeightedScore: weighted,
		Reason:        reason,
	})
	a.weightedSum = a.weightedSum.Add(weighted)
	a.totalWeight += int64(weight)
}

// Calculate runs the full model as of the given time. The time only matters
// for the age factor and the result timestamp.
func Calculate(in Input, asOf time.Time) Result {
	acc := &accumulator{weightedSum: decimal.Zero}

	if p := in.Personal; p != nil {
		score, reason := ageScore(p.Age(asOf))
		acc.add(FactorAge, score, weightAge, reason)

		score, reason = genderScore(p.Gender)
		acc.add(FactorGender, score, weightGender, reason)

		score, reason = maritalScore(p.MaritalStatus)
		acc.add(FactorMaritalStatus, score, weightMarital, reason)

		score, reason = educationScore(p.Education)
		acc.add(FactorEducation, score, weightEducation, reason)

		score, reason = employmentScore(p.EmploymentType, p.EmploymentDurationMonths)
		acc.add(FactorEmployment, score, weightEmployment, reason)

		score, reason = incomeScore(p.MonthlyIncome, p.IncomeSource)
		acc.add(FactorIncome, score, weightIncome, reason)

		score, reason = livingScore(p.LivingArrangement)
		acc.add(FactorLiving, score, weightLiving, reason)
	}

	score, reason := pdnScore(in.PDNRisk)
	acc.add(FactorPDN, score, weightPDN, reason)

	if h := in.History; h != nil {
		score, reason = loanHistoryScore(h.TotalLoans, h.ActiveLoans, h.OverdueLoans)
		acc.add(FactorLoanHistory, score, weightLoanHistory, reason)
	}

	if d := in.Device; d != nil {
		if d.DeviceType != "" {
			score, reason = deviceScore(d.DeviceType)
			acc.add(FactorDeviceType, score, weightDevice, reason)
		}
		if d.Region != "" {
			score, reason = regionScore(d.Region)
			acc.add(FactorRegion, score, weightRegion, reason)
		}
	}

	// Referral is a flat bonus on the final score, not a weighted factor.
	if in.HasReferral {
		acc.factors = append(acc.factors, FactorScore{
			Factor:        FactorReferral,
			Score:         referralBonus,
			Weight:        0,
			WeightedScore: decimal.NewFromInt(referralBonus),
			Reason:        "Referral program bonus",
		})
	}

	normalized := decimal.NewFromInt(50)
	if acc.totalWeight > 0 {
		normalized = acc.weightedSum.Div(decimal.NewFromInt(acc.totalWeight)).Mul(hundred)
	}
	if in.HasReferral {
		normalized = normalized.Add(decimal.NewFromInt(referralBonus))
	}
	final := normalized.IntPart()

	scaled := scoreFloor + int(final)*scoreMultiples
	if scaled > scoreCeiling {
		scaled = scoreCeiling
	}
	if scaled < scoreFloor {
		scaled = scoreFloor
	}

	category, probability := categorize(scaled)

	return Result{
		CreditScore:         scaled,
		Category:            category,
		ApprovalProbability: probability,
		Factors:             acc.factors,
		WeightedScore:       acc.weightedSum.Round(2),
		HasReferralBonus:    in.HasReferral,
		CalculatedAt:        asOf,
		Recommendations:     recommendationsFor(category, acc.factors),
	}
}

func categorize(scaled int) (Category, int) {
	switch {
	case scaled >= 800:
		return CategoryExcellent, 95
	case scaled >= 700:
		return CategoryGood, 80
	case scaled >= 600:
		return CategoryFair, 60
	case scaled >= 500:
		return CategoryPoor, 30
	default:
		return CategoryVeryPoor, 10
	}
}

func ageScore(age int) (int, string) {
	switch {
	case age < 18:
		return 0, "Under the minimum age"
	case age <= 21:
		return 50, "Young age, elevated risk"
	case age <= 25:
		return 80, "Early career"
	case age <= 35:
		return 100, "Optimal age"
	case age <= 45:
		return 90, "Stable age"
	case age <= 55:
		return 80, "Mature age"
	case age <= 65:
		return 60, "Pre-retirement age"
	default:
		return 40, "Retirement age"
	}
}

func genderScore(g models.Gender) (int, string) {
	if g == models.GenderFemale {
		return 60, "Statistically lower risk"
	}
	return 50, "Standard risk level"
}

func maritalScore(m models.MaritalStatus) (int, string) {
	switch m {
	case models.MaritalMarried:
		return 80, "Family stability"
	case models.MaritalSingle:
		return 60, "Single status"
	case models.MaritalDivorced:
		return 50, "Divorce may affect finances"
	case models.MaritalWidowed:
		return 55, "Special circumstances"
	default:
		return 60, "Unknown marital status"
	}
}

func educationScore(e models.EducationLevel) (int, string) {
	switch e {
	case models.EducationHigher:
		return 90, "Higher education"
	case models.EducationSecondary:
		return 60, "Secondary education"
	case models.EducationBasic:
		return 40, "Basic education"
	default:
		return 50, "Unknown education"
	}
}

func employmentScore(t models.EmploymentType, durationMonths int) (int, string) {
	var base int
	switch t {
	case models.EmploymentEmployed:
		base = 100
	case models.EmploymentSelfEmployed:
		base = 65
	case models.EmploymentUnemployed:
		base = 20
	case models.EmploymentRetired:
		base = 50
	case models.EmploymentStudent:
		base = 30
	default:
		base = 50
	}

	var bonus int
	var durationReason string
	switch {
	case durationMonths < 6:
		bonus = -20
		durationReason = "under 6 months in the job"
	case durationMonths < 12:
		bonus = 0
		durationReason = "under a year in the job"
	case durationMonths < 36:
		bonus = 10
		durationReason = "1 to 3 years in the job"
	default:
		bonus = 20
		durationReason = "over 3 years in the job"
	}

	score := base + bonus
	if score < 0 {
		score = 0
	}
	return score, fmt.Sprintf("%s, %s", t, durationReason)
}

var (
	incomeBand500k = decimal.NewFromInt(500_000)
	incomeBand1M   = decimal.NewFromInt(1_000_000)
	incomeBand2M   = decimal.NewFromInt(2_000_000)
	incomeBand5M   = decimal.NewFromInt(5_000_000)
)

func incomeScore(income decimal.Decimal, source models.IncomeSource) (int, string) {
	var base int
	var level string
	switch {
	case income.LessThan(incomeBand500k):
		base, level = 30, "Low income"
	case income.LessThan(incomeBand1M):
		base, level = 50, "Below average income"
	case income.LessThan(incomeBand2M):
		base, level = 70, "Average income"
	case income.LessThan(incomeBand5M):
		base, level = 90, "Above average income"
	default:
		base, level = 100, "High income"
	}

	// Source modifier in tenths, applied with integer truncation.
	var tenths int
	switch source {
	case models.IncomeSalary:
		tenths = 10
	case models.IncomeBusiness:
		tenths = 9
	case models.IncomePension:
		tenths = 8
	default:
		tenths = 7
	}

	return base * tenths / 10, fmt.Sprintf("%s from %s", level, source)
}

func livingScore(l models.LivingArrangement) (int, string) {
	switch l {
	case models.LivingOwn:
		return 80, "Owns their home"
	case models.LivingFamily:
		return 70, "Lives with family"
	case models.LivingRent:
		return 50, "Rents their home"
	case models.LivingOther:
		return 40, "Other living conditions"
	default:
		return 50, "Unknown living conditions"
	}
}

func pdnScore(level pdn.RiskLevel) (int, string) {
	switch level {
	case pdn.RiskLow:
		return 100, "Low debt load"
	case pdn.RiskMedium:
		return 70, "Medium debt load"
	case pdn.RiskHigh:
		return 40, "High debt load"
	case pdn.RiskCritical:
		return 10, "Critical debt load"
	default:
		return 50, "Unknown debt load"
	}
}

func loanHistoryScore(total, active, overdue int) (int, string) {
	if total == 0 {
		return 60, "No credit history"
	}

	var base int
	switch {
	case total <= 3:
		base = 80
	case total <= 6:
		base = 70
	default:
		base = 50
	}

	activePenalty := (active - 2) * 10
	if activePenalty < 0 {
		activePenalty = 0
	}

	score := base - overdue*30 - activePenalty
	if score < 10 {
		score = 10
	}
	return score, fmt.Sprintf("Loans: %d, active: %d, overdue: %d", total, active, overdue)
}

func deviceScore(deviceType string) (int, string) {
	d := strings.ToLower(deviceType)
	switch {
	case strings.Contains(d, "ios"), strings.Contains(d, "iphone"), strings.Contains(d, "ipad"):
		return 80, "Premium device"
	case strings.Contains(d, "android"):
		return 60, "Standard device"
	case strings.Contains(d, "windows"), strings.Contains(d, "mac"), strings.Contains(d, "desktop"):
		return 70, "Desktop device"
	default:
		return 50, "Unknown device"
	}
}

var regionalCenters = []string{"samarkand", "bukhara", "namangan", "andijan", "fergana"}

func regionScore(region string) (int, string) {
	r := strings.ToLower(region)
	if strings.Contains(r, "tashkent") {
		return 80, "Capital region"
	}
	for _, city := range regionalCenters {
		if strings.Contains(r, city) {
			return 60, "Regional center"
		}
	}
	return 50, "Other region"
}

func recommendationsFor(category Category, factors []FactorScore) []string {
	var recs []string

	switch category {
	case CategoryExcellent:
		recs = append(recs, "Excellent credit rating! The best terms are available to you.")
	case CategoryGood:
		recs = append(recs, "Good credit rating. Most offers are available to you.")
	case CategoryFair:
		recs = append(recs, "Average credit rating. We recommend improving your profile.")
	case CategoryPoor:
		recs = append(recs, "Low credit rating. Only limited offers are available.")
	default:
		recs = append(recs, "Very low rating. We recommend postponing the application.")
	}

	for _, f := range factors {
		if f.Score >= weakFactorBar {
			continue
		}
		switch f.Factor {
		case FactorEmployment:
			recs = append(recs, "Stay at your current job for at least 6 months")
		case FactorIncome:
			recs = append(recs, "Consider increasing your income or choosing a smaller amount")
		case FactorPDN:
			recs = append(recs, "Reduce your debt load before taking a new loan")
		case FactorLoanHistory:
			recs = append(recs, "Repay existing loans to improve your history")
		}
	}

	return recs
}
