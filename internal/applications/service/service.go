// Package service implements the loan application lifecycle: creation with
// affordability and scoring gates, listing, score reports, offer matching and
// cancellation.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"kreditomat/internal/applications/models"
	"kreditomat/internal/applications/store"
	offermodels "kreditomat/internal/offers/models"
	"kreditomat/internal/pdn"
	pdmodels "kreditomat/internal/personaldata/models"
	"kreditomat/internal/platform/metrics"
	"kreditomat/internal/scoring"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	approveScoreFloor = 600
	rejectScoreBar    = 500
)

// ProfileProvider fetches the borrower profile for scoring and gating.
type ProfileProvider interface {
	GetByUserID(ctx context.Context, userID id.UserID) (*pdmodels.PersonalData, error)
}

// ReferralService applies referral codes and reports referral standing.
type ReferralService interface {
	Apply(ctx context.Context, userID id.UserID, code string) error
	HasReferrer(ctx context.Context, userID id.UserID) (bool, error)
}

// OfferMatcher finds and scores offers for approved applications, and
// counts eligible offers for the anonymous pre-check.
type OfferMatcher interface {
	Match(ctx context.Context, amount decimal.Decimal, termMonths, creditScore int) (*offermodels.MatchResult, error)
	CountEligible(ctx context.Context, amount decimal.Decimal, termMonths int) (int, error)
}

// PhoneDirectory reports whether a phone number already has an account.
type PhoneDirectory interface {
	PhoneRegistered(ctx context.Context, phone string) (bool, error)
}

// Service orchestrates application operations.
type Service struct {
	store       store.Store
	profiles    ProfileProvider
	referrals   ReferralService
	phones      PhoneDirectory
	offers      OfferMatcher
	pdnEngine   *pdn.Engine
	defaultRate decimal.Decimal
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	st store.Store,
	profiles ProfileProvider,
	referrals ReferralService,
	phones PhoneDirectory,
	offers OfferMatcher,
	pdnEngine *pdn.Engine,
	defaultRate decimal.Decimal,
	opts ...Option,
) *Service {
	s := &Service{
		store:       st,
		profiles:    profiles,
		referrals:   referrals,
		phones:      phones,
		offers:      offers,
		pdnEngine:   pdnEngine,
		defaultRate: defaultRate,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new application. The user needs a complete profile and no
// other active application. The loan is priced at the platform default rate,
// the PDN snapshot is taken, and the application is scored immediately:
// fair or better approves, very poor rejects, everything else stays pending.
func (s *Service) Create(ctx context.Context, userID id.UserID, req models.CreateRequest, device models.DeviceContext) (*models.Application, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "please complete your personal information first")
		}
		return nil, err
	}

	active, err := s.store.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "you already have an active application")
	}

	if req.ReferralCode != "" {
		if err := s.referrals.Apply(ctx, userID, req.ReferralCode); err != nil {
			return nil, err
		}
	}

	assessment, err := s.pdnEngine.Assess(req.Amount, s.defaultRate, req.TermMonths, req.MonthlyIncome, req.OtherMonthlyPayments)
	if err != nil {
		return nil, err
	}

	hasReferral, err := s.referrals.HasReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scoreStart := time.Now()
	result := scoring.Calculate(scoring.Input{
		Personal:    profile,
		PDNRisk:     assessment.RiskLevel,
		Device:      &scoring.DeviceInfo{DeviceType: device.DeviceType, Region: device.Region},
		HasReferral: hasReferral,
	}, now)
	s.metrics.ObserveScoring(time.Since(scoreStart))

	score := result.CreditScore
	app := &models.Application{
		ID:                id.NewApplicationID(),
		UserID:            userID,
		Amount:            req.Amount,
		TermMonths:        req.TermMonths,
		Purpose:           req.Purpose,
		Status:            statusForScore(score),
		PDN:               assessment.Ratio,
		PDNRiskLevel:      assessment.RiskLevel,
		MonthlyPayment:    assessment.MonthlyPayment,
		TotalCost:         assessment.MonthlyPayment.Mul(decimal.NewFromInt(int64(req.TermMonths))).Round(2),
		Score:             &score,
		ScoreCategory:     result.Category,
		DeviceFingerprint: device.Fingerprint,
		IPAddress:         device.IPAddress,
		UserAgent:         device.UserAgent,
		DeviceType:        device.DeviceType,
		Region:            device.Region,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Create(ctx, app); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ApplicationsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "application created",
		"application_id", app.ID.String(),
		"user_id", userID.String(),
		"status", app.Status,
		"pdn", app.PDN.String(),
		"score", score,
	)
	return app, nil
}

func statusForScore(score int) models.Status {
	switch {
	case score >= approveScoreFloor:
		return models.StatusApproved
	case score < rejectScoreBar:
		return models.StatusRejected
	default:
		return models.StatusPending
	}
}

// List returns one page of the user's applications, newest first.
// PreCheck estimates eligibility for an anonymous visitor without creating
// an application. Registered phones get a tighter score estimate; new phones
// are told to register first.
func (s *Service) PreCheck(ctx context.Context, req models.PreCheckRequest) (*models.PreCheckResult, error) {
	if !req.Amount.IsPositive() || req.TermMonths < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount and term_months must be positive")
	}

	registered, err := s.phones.PhoneRegistered(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	count, err := s.offers.CountEligible(ctx, req.Amount, req.TermMonths)
	if err != nil {
		return nil, err
	}

	if registered {
		return &models.PreCheckResult{
			Eligible:             true,
			EstimatedScoreRange:  "600-800",
			AvailableOffersCount: count,
			RequiresRegistration: false,
			Message:              "you can apply for a loan",
		}, nil
	}
	return &models.PreCheckResult{
		Eligible:             count > 0,
		EstimatedScoreRange:  "500-700",
		AvailableOffersCount: count,
		RequiresRegistration: true,
		Message:              "registration is required before applying",
	}, nil
}

func (s *Service) List(ctx context.Context, userID id.UserID, status *models.Status, page, limit int) (*models.ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	apps, err := s.store.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	total := len(apps)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &models.ListResult{
		Items:   apps[offset:end],
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasNext: end < total,
		HasPrev: page > 1,
	}, nil
}

// Get returns one application owned by the user.
func (s *Service) Get(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	return app, nil
}

// ScoreReport recomputes the full scoring breakdown for an already scored
// application.
func (s *Service) ScoreReport(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.ScoreReport, error) {
	app, err := s.Get(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if app.Score == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "score not calculated yet")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "personal data not found")
		}
		return nil, err
	}

	hasReferral, err := s.referrals.HasReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := scoring.Calculate(scoring.Input{
		Personal:    profile,
		PDNRisk:     app.PDNRiskLevel,
		Device:      &scoring.DeviceInfo{DeviceType: app.DeviceType, Region: app.Region},
		HasReferral: hasReferral,
	}, s.now())

	return &models.ScoreReport{
		ApplicationID:       app.ID,
		CreditScore:         result.CreditScore,
		Category:            result.Category,
		ApprovalProbability: result.ApprovalProbability,
		Factors:             result.Factors,
		Recommendations:     result.Recommendations,
		CalculatedAt:        result.CalculatedAt,
	}, nil
}

// Offers returns matched bank offers for an approved application.
func (s *Service) Offers(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*offermodels.MatchResult, error) {
	app, err := s.Get(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved {
		return nil, dErrors.New(dErrors.CodeBadRequest, "application must be approved to see offers")
	}

	score := 0
	if app.Score != nil {
		score = *app.Score
	}
	return s.offers.Match(ctx, app.Amount, app.TermMonths, score)
}

// Cancel cancels a pending or processing application.
func (s *Service) Cancel(ctx context.Context, userID id.UserID, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.Get(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanCancel() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "can only cancel pending or processing applications")
	}

	app.Status = models.StatusCancelled
	app.UpdatedAt = s.now()
	if err := s.store.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}
