package store

import (
	"context"
	"sort"
	"sync"

	"kreditomat/internal/applications/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// MemoryStore keeps applications in memory. Used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]models.Application
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[id.ApplicationID]models.Application)}
}

func (s *MemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "application already exists")
	}
	s.apps[app.ID] = *app
	return nil
}

func (s *MemoryStore) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; !exists {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	s.apps[app.ID] = *app
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return &app, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID, status *models.Status) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Application
	for _, app := range s.apps {
		if app.UserID != userID {
			continue
		}
		if status != nil && app.Status != *status {
			continue
		}
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) CountActive(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, app := range s.apps {
		if app.UserID == userID && app.Status.IsActive() {
			count++
		}
	}
	return count, nil
}
