// Package store defines the persistence interfaces behind the auth service:
// durable users in Postgres, short-lived OTP codes and sessions in Redis.
// Memory implementations back development mode and tests.
package store

import (
	"context"
	"time"

	"kreditomat/internal/auth/models"
	id "kreditomat/pkg/domain"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID id.UserID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListReferred(ctx context.Context, referrerID id.UserID) ([]models.User, error)
}

// OTPStore keeps hashed one-time codes keyed by phone number. Codes expire
// on their own; Get returns not_found after expiry.
type OTPStore interface {
	Store(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

// SessionStore tracks active access tokens so logout can invalidate them
// before the JWT itself expires.
type SessionStore interface {
	Store(ctx context.Context, token string, userID id.UserID, ttl time.Duration) error
	Get(ctx context.Context, token string) (id.UserID, error)
	Extend(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context, token string) (bool, error)
}
