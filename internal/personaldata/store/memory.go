package store

import (
	"context"
	"sync"

	"kreditomat/internal/personaldata/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// MemoryStore keeps profiles in memory. Used in development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]models.PersonalData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[id.UserID]models.PersonalData)}
}

func (s *MemoryStore) Get(_ context.Context, userID id.UserID) (*models.PersonalData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.profiles[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "personal data not found")
	}
	return &data, nil
}

func (s *MemoryStore) Save(_ context.Context, data *models.PersonalData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[data.UserID] = *data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "personal data not found")
	}
	delete(s.profiles, userID)
	return nil
}
