// Package service implements offer listing, pricing and matching.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kreditomat/internal/calculator"
	"kreditomat/internal/offers/models"
	"kreditomat/internal/offers/store"
	"kreditomat/internal/platform/metrics"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var (
	hundred           = decimal.NewFromInt(100)
	matchRateBaseline = decimal.NewFromInt(20)
	scoreBaseline     = decimal.NewFromInt(700)
	matchScoreMax     = decimal.NewFromInt(100)
)

// Service serves the offer catalog and prices offers against loan terms.
type Service struct {
	store   store.Store
	calc    *calculator.Calculator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, calc *calculator.Calculator, opts ...Option) *Service {
	s := &Service{
		store:  st,
		calc:   calc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of active offers matching the filter.
func (s *Service) List(ctx context.Context, filter models.Filter, page, limit int) (*models.ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offers, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := len(offers)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &models.ListResult{
		Items:   offers[offset:end],
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasNext: end < total,
		HasPrev: page > 1,
	}, nil
}

// Featured returns the highest-priority active offers.
func (s *Service) Featured(ctx context.Context, limit int) ([]models.Offer, error) {
	if limit < 1 || limit > 20 {
		limit = 5
	}
	return s.store.Featured(ctx, limit)
}

// Get returns one active offer.
func (s *Service) Get(ctx context.Context, offerID id.OfferID) (*models.Offer, error) {
	offer, err := s.store.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	return offer, nil
}

// Banks returns the distinct bank names with active offers.
func (s *Service) Banks(ctx context.Context) ([]string, error) {
	return s.store.BankNames(ctx)
}

// CalculateOffer prices one offer for the given terms, validating them
// against the offer's own limits.
func (s *Service) CalculateOffer(ctx context.Context, offerID id.OfferID, amount decimal.Decimal, termMonths int) (*models.Calculation, error) {
	offer, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.AcceptsAmount(amount) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("amount must be between %s and %s", offer.MinAmount, offer.MaxAmount))
	}
	if !offer.AcceptsTerm(termMonths) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("term must be between %d and %d months", offer.MinTermMonths, offer.MaxTermMonths))
	}
	return s.price(offer, amount, termMonths)
}

func (s *Service) price(offer *models.Offer, amount decimal.Decimal, termMonths int) (*models.Calculation, error) {
	calc, err := s.calc.Compute(calculator.Terms{
		Amount:     amount,
		AnnualRate: offer.AnnualRate,
		TermMonths: termMonths,
	})
	if err != nil {
		return nil, err
	}

	commission := amount.Mul(offer.CommissionPercent).Div(hundred).Round(2)
	return &models.Calculation{
		OfferID:          offer.ID,
		BankName:         offer.BankName,
		Amount:           amount,
		TermMonths:       termMonths,
		AnnualRate:       offer.AnnualRate,
		MonthlyPayment:   calc.MonthlyPayment,
		TotalCost:        calc.TotalCost.Add(commission),
		Overpayment:      calc.Overpayment.Add(commission),
		CommissionAmount: commission,
		EffectiveRate:    calc.EffectiveRate,
	}, nil
}

// Compare prices every eligible offer for the terms and ranks them by rate
// and by total overpayment. Offers are priced concurrently.
func (s *Service) Compare(ctx context.Context, amount decimal.Decimal, termMonths int, score *int) (*models.Comparison, error) {
	if err := s.calc.ValidateTerms(amount, termMonths); err != nil {
		return nil, err
	}

	filter := models.Filter{Amount: &amount, TermMonths: &termMonths, MinScore: score}
	offers, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no offers found matching your criteria")
	}

	calculations := make([]models.Calculation, len(offers))
	g, _ := errgroup.WithContext(ctx)
	for i := range offers {
		g.Go(func() error {
			calc, err := s.price(&offers[i], amount, termMonths)
			if err != nil {
				return err
			}
			calculations[i] = *calc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comparison := &models.Comparison{
		Amount:     amount,
		TermMonths: termMonths,
		Offers:     calculations,
	}

	rateSum := decimal.Zero
	minRate, maxRate := offers[0].AnnualRate, offers[0].AnnualRate
	bestOverpayment := calculations[0].Overpayment
	comparison.BestByRate = offers[0].ID
	comparison.BestByOverpayment = offers[0].ID

	for i := range offers {
		rate := offers[i].AnnualRate
		rateSum = rateSum.Add(rate)
		if rate.LessThan(minRate) {
			minRate = rate
			comparison.BestByRate = offers[i].ID
		}
		if rate.GreaterThan(maxRate) {
			maxRate = rate
		}
		if calculations[i].Overpayment.LessThan(bestOverpayment) {
			bestOverpayment = calculations[i].Overpayment
			comparison.BestByOverpayment = offers[i].ID
		}
	}

	comparison.AverageRate = rateSum.Div(decimal.NewFromInt(int64(len(offers)))).Round(2)
	comparison.RateRange = fmt.Sprintf("%s%% - %s%%", minRate, maxRate)
	return comparison, nil
}

// Match finds eligible offers for an approved application and scores how
// well each one fits. The best offer is the one with the lowest overpayment.
func (s *Service) Match(ctx context.Context, amount decimal.Decimal, termMonths, creditScore int) (*models.MatchResult, error) {
	filter := models.Filter{Amount: &amount, TermMonths: &termMonths, MinScore: &creditScore}
	offers, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	matchesList := make([]models.Match, len(offers))
	g, _ := errgroup.WithContext(ctx)
	for i := range offers {
		g.Go(func() error {
			calc, err := s.price(&offers[i], amount, termMonths)
			if err != nil {
				return err
			}
			matchesList[i] = models.Match{
				OfferID:        offers[i].ID,
				BankName:       offers[i].BankName,
				AnnualRate:     offers[i].AnnualRate,
				MinAmount:      offers[i].MinAmount,
				MaxAmount:      offers[i].MaxAmount,
				MinTermMonths:  offers[i].MinTermMonths,
				MaxTermMonths:  offers[i].MaxTermMonths,
				Requirements:   offers[i].Requirements,
				MonthlyPayment: calc.MonthlyPayment,
				TotalCost:      calc.TotalCost,
				Overpayment:    calc.Overpayment,
				MatchScore:     matchScore(offers[i].AnnualRate, creditScore),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.MatchResult{Offers: matchesList, TotalOffers: len(matchesList)}
	var bestOverpayment decimal.Decimal
	for i := range matchesList {
		if result.BestOfferID == nil || matchesList[i].Overpayment.LessThan(bestOverpayment) {
			offerID := matchesList[i].OfferID
			result.BestOfferID = &offerID
			bestOverpayment = matchesList[i].Overpayment
		}
	}

	s.metrics.ObserveMatches(len(matchesList))
	return result, nil
}

// CountEligible counts active offers whose limits accept the requested
// amount and term, without scoring or pricing them.
func (s *Service) CountEligible(ctx context.Context, amount decimal.Decimal, termMonths int) (int, error) {
	offers, err := s.store.List(ctx, models.Filter{Amount: &amount, TermMonths: &termMonths})
	if err != nil {
		return 0, err
	}
	return len(offers), nil
}

// Statistics summarizes the active catalog.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	offers, err := s.store.List(ctx, models.Filter{})
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{TotalOffers: len(offers)}
	if len(offers) == 0 {
		return stats, nil
	}

	banks := make(map[string]struct{})
	rateSum := decimal.Zero
	stats.Rates.Min = offers[0].AnnualRate
	stats.Rates.Max = offers[0].AnnualRate
	stats.Amounts.Min = offers[0].MinAmount
	stats.Amounts.Max = offers[0].MaxAmount

	for i := range offers {
		o := &offers[i]
		banks[o.BankName] = struct{}{}
		rateSum = rateSum.Add(o.AnnualRate)
		if o.AnnualRate.LessThan(stats.Rates.Min) {
			stats.Rates.Min = o.AnnualRate
		}
		if o.AnnualRate.GreaterThan(stats.Rates.Max) {
			stats.Rates.Max = o.AnnualRate
		}
		if o.MinAmount.LessThan(stats.Amounts.Min) {
			stats.Amounts.Min = o.MinAmount
		}
		if o.MaxAmount.GreaterThan(stats.Amounts.Max) {
			stats.Amounts.Max = o.MaxAmount
		}
		if o.OnlineApplication {
			stats.OnlineApplications++
		}
		if o.EarlyRepaymentAllowed {
			stats.EarlyRepayment++
		}
	}

	stats.TotalBanks = len(banks)
	stats.Rates.Average = rateSum.Div(decimal.NewFromInt(int64(len(offers)))).Round(2)
	return stats, nil
}

// matchScore rates offer fit on a 0 to 100 scale. Rates above 20% and credit
// scores below 700 both pull the score down.
func matchScore(annualRate decimal.Decimal, creditScore int) decimal.Decimal {
	score := matchScoreMax
	if annualRate.GreaterThan(matchRateBaseline) {
		score = score.Sub(annualRate.Sub(matchRateBaseline).Mul(decimal.NewFromInt(2)))
	}
	if creditScore < 700 {
		deficit := scoreBaseline.Sub(decimal.NewFromInt(int64(creditScore)))
		score = score.Sub(deficit.Div(decimal.NewFromInt(10)))
	}
	if score.IsNegative() {
		return decimal.Zero
	}
	if score.GreaterThan(matchScoreMax) {
		return matchScoreMax
	}
	return score
}
