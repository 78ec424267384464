package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"kreditomat/internal/offers/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// MemoryStore keeps offers in memory. Used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	offers map[id.OfferID]models.Offer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{offers: make(map[id.OfferID]models.Offer)}
}

func (s *MemoryStore) Create(_ context.Context, offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.offers[offer.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "offer already exists")
	}
	s.offers[offer.ID] = *offer
	return nil
}

func (s *MemoryStore) Update(_ context.Context, offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.offers[offer.ID]; !exists {
		return dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	s.offers[offer.ID] = *offer
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, offerID id.OfferID) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[offerID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	return &offer, nil
}

func (s *MemoryStore) List(_ context.Context, filter models.Filter) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Offer
	for _, offer := range s.offers {
		if !offer.IsActive || !matches(&offer, filter) {
			continue
		}
		result = append(result, offer)
	}
	sortOffers(result, filter.SortBy)
	return result, nil
}

func (s *MemoryStore) Featured(_ context.Context, limit int) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Offer
	for _, offer := range s.offers {
		if offer.IsActive {
			result = append(result, offer)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].AnnualRate.LessThan(result[j].AnnualRate)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) BankNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, offer := range s.offers {
		if !offer.IsActive {
			continue
		}
		if _, ok := seen[offer.BankName]; ok {
			continue
		}
		seen[offer.BankName] = struct{}{}
		names = append(names, offer.BankName)
	}
	sort.Strings(names)
	return names, nil
}

func matches(offer *models.Offer, filter models.Filter) bool {
	if filter.Amount != nil && !offer.AcceptsAmount(*filter.Amount) {
		return false
	}
	if filter.TermMonths != nil && !offer.AcceptsTerm(*filter.TermMonths) {
		return false
	}
	if filter.MinScore != nil && offer.MinScore > *filter.MinScore {
		return false
	}
	if filter.MaxRate != nil && offer.AnnualRate.GreaterThan(*filter.MaxRate) {
		return false
	}
	if filter.BankName != "" && !strings.Contains(strings.ToLower(offer.BankName), strings.ToLower(filter.BankName)) {
		return false
	}
	if filter.OnlineOnly && !offer.OnlineApplication {
		return false
	}
	return true
}

func sortOffers(offers []models.Offer, sortBy string) {
	switch sortBy {
	case models.SortByBankName:
		sort.Slice(offers, func(i, j int) bool { return offers[i].BankName < offers[j].BankName })
	case models.SortByMinAmount:
		sort.Slice(offers, func(i, j int) bool { return offers[i].MinAmount.LessThan(offers[j].MinAmount) })
	default:
		sort.Slice(offers, func(i, j int) bool { return offers[i].AnnualRate.LessThan(offers[j].AnnualRate) })
	}
}
