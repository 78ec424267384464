// Package store persists bank offers.
package store

import (
	"context"

	"kreditomat/internal/offers/models"
	id "kreditomat/pkg/domain"
)

// Store is the offer catalog. List and Featured return active offers only.
type Store interface {
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, offerID id.OfferID) (*models.Offer, error)
	List(ctx context.Context, filter models.Filter) ([]models.Offer, error)
	Featured(ctx context.Context, limit int) ([]models.Offer, error)
	BankNames(ctx context.Context) ([]string, error)
}
