// Package store persists borrower profiles.
package store

import (
	"context"

	"kreditomat/internal/personaldata/models"
	id "kreditomat/pkg/domain"
)

// Store holds one profile per user. Save upserts.
type Store interface {
	Get(ctx context.Context, userID id.UserID) (*models.PersonalData, error)
	Save(ctx context.Context, data *models.PersonalData) error
	Delete(ctx context.Context, userID id.UserID) error
}
