// Package models holds the auth domain types and the phone number helpers
// shared by the auth service and handlers.
package models

import (
	"fmt"
	"strings"
	"time"

	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// User is an authenticated account keyed by phone number. The referral code
// is issued at registration and never changes.
type User struct {
	ID           id.UserID  `json:"id"`
	PhoneNumber  string     `json:"phone_number"`
	Verified     bool       `json:"verified"`
	ReferralCode string     `json:"referral_code"`
	ReferredBy   *id.UserID `json:"referred_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PhoneRequest asks for an OTP code to be delivered.
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest exchanges an OTP code for a session token.
type VerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// AuthResponse is returned after a successful verification.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      id.UserID `json:"user_id"`
	ExpiresIn   int       `json:"expires_in"`
	IsNewUser   bool      `json:"is_new_user"`
}

// MessageResponse is the generic success envelope for request and logout.
// Code is set only in development mode.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// PhoneCheck reports whether a phone number is registered and reachable.
type PhoneCheck struct {
	Phone      string `json:"phone"`
	UserExists bool   `json:"user_exists"`
	CanReceive bool   `json:"can_receive"`
}

// FormatPhone normalizes a phone number: digits only, leading plus.
func FormatPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return "+" + b.String()
}

// ValidatePhone enforces the Uzbek international format: +998 followed by
// nine digits.
func ValidatePhone(phone string) error {
	if !strings.HasPrefix(phone, "+998") || len(phone) != 13 {
		return dErrors.New(dErrors.CodeInvalidInput, "phone must be in +998XXXXXXXXX format")
	}
	return nil
}

// MaskPhone hides the middle digits for display and logs,
// e.g. "+998 90 *** ** 67".
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return phone
	}
	if strings.HasPrefix(phone, "+998") {
		return fmt.Sprintf("%s %s *** ** %s", phone[:4], phone[4:6], phone[len(phone)-2:])
	}
	return phone[:7] + "***" + phone[len(phone)-2:]
}
