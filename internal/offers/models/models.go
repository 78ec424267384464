// Package models defines bank loan offers and the derived pricing and
// matching results.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "kreditomat/pkg/domain"
)

// Offer is one bank's loan product with its limits and requirements.
type Offer struct {
	ID                    id.OfferID      `json:"id"`
	BankName              string          `json:"bank_name"`
	LogoURL               string          `json:"logo_url,omitempty"`
	MinAmount             decimal.Decimal `json:"min_amount"`
	MaxAmount             decimal.Decimal `json:"max_amount"`
	MinTermMonths         int             `json:"min_term_months"`
	MaxTermMonths         int             `json:"max_term_months"`
	AnnualRate            decimal.Decimal `json:"annual_rate"`
	CommissionPercent     decimal.Decimal `json:"commission_percent"`
	MinScore              int             `json:"min_score"`
	Rating                decimal.Decimal `json:"rating"`
	ReviewsCount          int             `json:"reviews_count"`
	OnlineApplication     bool            `json:"online_application"`
	EarlyRepaymentAllowed bool            `json:"early_repayment_allowed"`
	ProcessingTimeHours   int             `json:"processing_time_hours"`
	Priority              int             `json:"priority"`
	Requirements          string          `json:"requirements,omitempty"`
	IsActive              bool            `json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// AcceptsAmount reports whether the amount fits the offer's limits.
func (o *Offer) AcceptsAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(o.MinAmount) && amount.LessThanOrEqual(o.MaxAmount)
}

// AcceptsTerm reports whether the term fits the offer's limits.
func (o *Offer) AcceptsTerm(termMonths int) bool {
	return termMonths >= o.MinTermMonths && termMonths <= o.MaxTermMonths
}

// AcceptsScore reports whether the credit score meets the offer's floor.
func (o *Offer) AcceptsScore(score int) bool {
	return score >= o.MinScore
}

// Sort fields accepted by list queries.
const (
	SortByAnnualRate = "annual_rate"
	SortByBankName   = "bank_name"
	SortByMinAmount  = "min_amount"
)

// Filter narrows offer listings. Nil fields are not applied.
type Filter struct {
	Amount     *decimal.Decimal
	TermMonths *int
	MinScore   *int
	MaxRate    *decimal.Decimal
	BankName   string
	OnlineOnly bool
	SortBy     string
}

// Calculation prices one offer for concrete loan terms. Commission is folded
// into the total cost and overpayment.
type Calculation struct {
	OfferID          id.OfferID      `json:"offer_id"`
	BankName         string          `json:"bank_name"`
	Amount           decimal.Decimal `json:"amount"`
	TermMonths       int             `json:"term_months"`
	AnnualRate       decimal.Decimal `json:"annual_rate"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	Overpayment      decimal.Decimal `json:"overpayment"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	EffectiveRate    decimal.Decimal `json:"effective_rate"`
}

// Comparison ranks all eligible offers for one set of loan terms.
type Comparison struct {
	Amount            decimal.Decimal `json:"amount"`
	TermMonths        int             `json:"term_months"`
	Offers            []Calculation   `json:"offers"`
	BestByRate        id.OfferID      `json:"best_by_rate"`
	BestByOverpayment id.OfferID      `json:"best_by_overpayment"`
	AverageRate       decimal.Decimal `json:"average_rate"`
	RateRange         string          `json:"rate_range"`
}

// Match is one offer scored against an approved application.
type Match struct {
	OfferID        id.OfferID      `json:"offer_id"`
	BankName       string          `json:"bank_name"`
	AnnualRate     decimal.Decimal `json:"annual_rate"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	MinTermMonths  int             `json:"min_term_months"`
	MaxTermMonths  int             `json:"max_term_months"`
	Requirements   string          `json:"requirements,omitempty"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Overpayment    decimal.Decimal `json:"overpayment"`
	MatchScore     decimal.Decimal `json:"match_score"`
}

// MatchResult is the full matching outcome for one application.
type MatchResult struct {
	Offers      []Match     `json:"offers"`
	BestOfferID *id.OfferID `json:"best_offer_id,omitempty"`
	TotalOffers int         `json:"total_offers"`
}

// ListResult is one page of offers.
type ListResult struct {
	Items   []Offer `json:"items"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	HasNext bool    `json:"has_next"`
	HasPrev bool    `json:"has_prev"`
}

// RateRange summarizes rate spread across active offers.
type RateRange struct {
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	Average decimal.Decimal `json:"average"`
}

// AmountRange summarizes amount limits across active offers.
type AmountRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Statistics is the public summary of the offer catalog.
type Statistics struct {
	TotalOffers        int         `json:"total_offers"`
	TotalBanks         int         `json:"total_banks"`
	Rates              RateRange   `json:"rate_range"`
	Amounts            AmountRange `json:"amount_range"`
	OnlineApplications int         `json:"online_applications"`
	EarlyRepayment     int         `json:"early_repayment"`
}
