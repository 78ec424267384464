package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"kreditomat/internal/auth/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// MemoryUserStore is an in-memory UserStore for development and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[id.UserID]*models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PhoneNumber == user.PhoneNumber {
			return dErrors.New(dErrors.CodeConflict, "phone number already registered")
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
}

func (s *MemoryUserStore) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
}

func (s *MemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryUserStore) ListReferred(_ context.Context, referrerID id.UserID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var referred []models.User
	for _, u := range s.users {
		if u.ReferredBy != nil && *u.ReferredBy == referrerID {
			referred = append(referred, *u)
		}
	}
	sort.Slice(referred, func(i, j int) bool {
		return referred[i].CreatedAt.After(referred[j].CreatedAt)
	})
	return referred, nil
}

type expiringValue struct {
	value     string
	expiresAt time.Time
}

// MemoryOTPStore is an in-memory OTPStore with lazy expiry.
type MemoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]expiringValue
	now   func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: make(map[string]expiringValue), now: time.Now}
}

func (s *MemoryOTPStore) Store(_ context.Context, phone, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = expiringValue{value: codeHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.codes[phone]
	if !ok || s.now().After(v.expiresAt) {
		delete(s.codes, phone)
		return "", dErrors.New(dErrors.CodeNotFound, "code not found")
	}
	return v.value, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, phone)
	return nil
}

// MemorySessionStore is an in-memory SessionStore with lazy expiry.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	userID    id.UserID
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]sessionEntry), now: time.Now}
}

func (s *MemorySessionStore) Store(_ context.Context, token string, userID id.UserID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sessionEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (id.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.sessions, token)
		return id.UserID{}, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return e.userID, nil
}

func (s *MemorySessionStore) Extend(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	e.expiresAt = s.now().Add(ttl)
	s.sessions[token] = e
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok, nil
}
