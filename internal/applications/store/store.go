// Package store persists loan applications.
package store

import (
	"context"

	"kreditomat/internal/applications/models"
	id "kreditomat/pkg/domain"
)

// Store persists applications. ListByUser returns newest first.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	ListByUser(ctx context.Context, userID id.UserID, status *models.Status) ([]models.Application, error)
	CountActive(ctx context.Context, userID id.UserID) (int, error)
}
