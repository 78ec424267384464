// Package models defines loan applications and their lifecycle.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"kreditomat/internal/pdn"
	"kreditomat/internal/scoring"
	id "kreditomat/pkg/domain"
)

// Status of a loan application.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the application still occupies the user's single
// active slot.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved:
		return true
	}
	return false
}

// CanCancel reports whether the user may still cancel the application.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusProcessing
}

// Application is one loan request with the affordability and scoring snapshot
// taken at creation time.
type Application struct {
	ID                id.ApplicationID `json:"id"`
	UserID            id.UserID        `json:"user_id"`
	Amount            decimal.Decimal  `json:"amount"`
	TermMonths        int              `json:"term_months"`
	Purpose           string           `json:"purpose,omitempty"`
	Status            Status           `json:"status"`
	PDN               decimal.Decimal  `json:"pdn"`
	PDNRiskLevel      pdn.RiskLevel    `json:"pdn_risk_level"`
	MonthlyPayment    decimal.Decimal  `json:"monthly_payment"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	Score             *int             `json:"score,omitempty"`
	ScoreCategory     scoring.Category `json:"score_category,omitempty"`
	DeviceFingerprint string           `json:"-"`
	IPAddress         string           `json:"-"`
	UserAgent         string           `json:"-"`
	DeviceType        string           `json:"device_type,omitempty"`
	Region            string           `json:"region,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CreateRequest carries the user-supplied part of a new application.
type CreateRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	TermMonths           int             `json:"term_months"`
	Purpose              string          `json:"purpose,omitempty"`
	MonthlyIncome        decimal.Decimal `json:"monthly_income"`
	OtherMonthlyPayments decimal.Decimal `json:"other_monthly_payments"`
	ReferralCode         string          `json:"referral_code,omitempty"`
}

// DeviceContext is the request context captured when an application is
// created. It feeds fraud detection and the device/region scoring factors.
type DeviceContext struct {
	Fingerprint string
	IPAddress   string
	UserAgent   string
	DeviceType  string
	Region      string
}

// PreCheckRequest is the anonymous eligibility probe. No application is
// created and no authentication is required.
type PreCheckRequest struct {
	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `json:"amount"`
	TermMonths  int             `json:"term_months"`
}

// PreCheckResult tells a prospective borrower whether applying is worth it.
type PreCheckResult struct {
	Eligible             bool   `json:"eligible"`
	EstimatedScoreRange  string `json:"estimated_score_range"`
	AvailableOffersCount int    `json:"available_offers_count"`
	RequiresRegistration bool   `json:"requires_registration"`
	Message              string `json:"message"`
}

// ListResult is one page of a user's applications, newest first.
type ListResult struct {
	Items   []Application `json:"items"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	HasNext bool          `json:"has_next"`
	HasPrev bool          `json:"has_prev"`
}

// ScoreReport is the detailed scoring breakdown for one application.
type ScoreReport struct {
	ApplicationID       id.ApplicationID      `json:"application_id"`
	CreditScore         int                   `json:"credit_score"`
	Category            scoring.Category      `json:"category"`
	ApprovalProbability int                   `json:"approval_probability"`
	Factors             []scoring.FactorScore `json:"factors"`
	Recommendations     []string              `json:"recommendations"`
	CalculatedAt        time.Time             `json:"calculated_at"`
}
