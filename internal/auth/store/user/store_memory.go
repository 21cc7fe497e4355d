// Package user provides user persistence keyed by ID with a
// case-insensitive unique email.
package user

import (
	"context"
	"sync"

	"covault/internal/auth/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store for tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return sentinel.ErrAlreadyUsed
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *InMemory) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}
