// Package service implements the referral program: code validation and
// application, anti-abuse caps, and per-user statistics. Referrals are the
// referred_by relation on user records; there is no separate ledger.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	authmodels "kreditomat/internal/auth/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const (
	codeLength = 6

	maxReferralsPerDay = 10
	maxTotalReferrals  = 100

	recentWindow = 30 * 24 * time.Hour
	recentLimit  = 10

	referralLinkBase = "https://kreditomat.uz/?ref="
)

// ReferrerReward and ReferredBonus are the payout constants in soum.
var (
	ReferrerReward = decimal.NewFromInt(50_000)
	ReferredBonus  = decimal.NewFromInt(10_000)
)

// Users is the slice of the user store the referral program needs.
type Users interface {
	GetByID(ctx context.Context, userID id.UserID) (*authmodels.User, error)
	GetByReferralCode(ctx context.Context, code string) (*authmodels.User, error)
	Update(ctx context.Context, user *authmodels.User) error
	ListReferred(ctx context.Context, referrerID id.UserID) ([]authmodels.User, error)
}

// LoanActivity reports whether a user has an approved loan. Referrer rewards
// vest only once the referred user gets approved.
type LoanActivity interface {
	HasApproved(ctx context.Context, userID id.UserID) (bool, error)
}

// CodeInfo is a user's own referral code and shareable link.
type CodeInfo struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
}

// ReferredUser is one entry in the recent referrals list. Only the last four
// phone digits are exposed.
type ReferredUser struct {
	ID       id.UserID `json:"id"`
	Phone    string    `json:"phone"`
	JoinedAt time.Time `json:"joined_at"`
}

// Stats is the referral dashboard for one user.
type Stats struct {
	ReferralCode        string          `json:"referral_code"`
	ReferralLink        string          `json:"referral_link"`
	TotalReferrals      int             `json:"total_referrals"`
	ActiveReferrals     int             `json:"active_referrals"`
	EarnedRewards       decimal.Decimal `json:"earned_rewards"`
	PendingRewards      decimal.Decimal `json:"pending_rewards"`
	DailyLimitRemaining int             `json:"daily_limit_remaining"`
	TotalLimitRemaining int             `json:"total_limit_remaining"`
	RecentReferrals     []ReferredUser  `json:"recent_referrals"`
}

// Service runs the referral program.
type Service struct {
	users  Users
	loans  LoanActivity
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(users Users, loans LoanActivity, opts ...Option) *Service {
	s := &Service{
		users:  users,
		loans:  loans,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Code returns the user's referral code and link. Codes are issued at
// registration, so this never generates one.
func (s *Service) Code(ctx context.Context, userID id.UserID) (*CodeInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CodeInfo{
		ReferralCode: user.ReferralCode,
		ReferralLink: referralLinkBase + user.ReferralCode,
	}, nil
}

// Validate resolves a referral code to its owner.
func (s *Service) Validate(ctx context.Context, code string) (*authmodels.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid referral code")
	}
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid referral code")
		}
		return nil, err
	}
	return referrer, nil
}

// Apply links a user to the owner of the referral code. Self-referral,
// double referral and the referrer's daily and total caps are rejected.
func (s *Service) Apply(ctx context.Context, userID id.UserID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ReferredBy != nil {
		return dErrors.New(dErrors.CodeConflict, "referral code already applied")
	}

	referrer, err := s.Validate(ctx, code)
	if err != nil {
		return err
	}
	if referrer.ID == userID {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot use your own referral code")
	}

	referred, err := s.users.ListReferred(ctx, referrer.ID)
	if err != nil {
		return err
	}
	if len(referred) >= maxTotalReferrals {
		return dErrors.New(dErrors.CodeBadRequest, "referrer reached the referral limit")
	}
	if s.referralsToday(referred) >= maxReferralsPerDay {
		return dErrors.New(dErrors.CodeBadRequest, "referrer reached the daily referral limit")
	}

	user.ReferredBy = &referrer.ID
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "referral applied",
		"user_id", userID,
		"referrer_id", referrer.ID,
	)
	return nil
}

// HasReferrer reports whether the user joined through a referral.
func (s *Service) HasReferrer(ctx context.Context, userID id.UserID) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.ReferredBy != nil, nil
}

// Stats builds the referral dashboard. A referral counts as active, and its
// reward as earned, once the referred user has an approved application.
func (s *Service) Stats(ctx context.Context, userID id.UserID) (*Stats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	referred, err := s.users.ListReferred(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ReferralCode:    user.ReferralCode,
		ReferralLink:    referralLinkBase + user.ReferralCode,
		TotalReferrals:  len(referred),
		EarnedRewards:   decimal.Zero,
		PendingRewards:  decimal.Zero,
		RecentReferrals: []ReferredUser{},
	}

	cutoff := s.now().Add(-recentWindow)
	for _, r := range referred {
		approved, err := s.loans.HasApproved(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		if approved {
			stats.ActiveReferrals++
			stats.EarnedRewards = stats.EarnedRewards.Add(ReferrerReward)
		} else {
			stats.PendingRewards = stats.PendingRewards.Add(ReferrerReward)
		}

		if r.CreatedAt.After(cutoff) && len(stats.RecentReferrals) < recentLimit {
			stats.RecentReferrals = append(stats.RecentReferrals, ReferredUser{
				ID:       r.ID,
				Phone:    lastDigits(r.PhoneNumber),
				JoinedAt: r.CreatedAt,
			})
		}
	}

	stats.DailyLimitRemaining = maxReferralsPerDay - s.referralsToday(referred)
	stats.TotalLimitRemaining = maxTotalReferrals - len(referred)
	return stats, nil
}

func (s *Service) referralsToday(referred []authmodels.User) int {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count := 0
	for _, r := range referred {
		if !r.CreatedAt.Before(dayStart) {
			count++
		}
	}
	return count
}

func lastDigits(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}
