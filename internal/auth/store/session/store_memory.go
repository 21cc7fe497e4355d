// Package session persists server-side sessions keyed by their opaque
// token. The redis variant is the production store; expiry is enforced by
// the store so callers never see a stale session.
package session

import (
	"context"
	"sync"
	"time"

	"covault/internal/auth/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
)

// InMemory stores sessions in a mutex-guarded map, enforcing expiry at read
// time the way the redis TTL does.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	clock    func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		sessions: make(map[string]*models.Session),
		clock:    time.Now,
	}
}

// WithClock overrides the expiry clock for tests.
func (s *InMemory) WithClock(clock func() time.Time) *InMemory {
	s.clock = clock
	return s
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.Token]; exists {
		return sentinel.ErrConflict
	}
	clone := *session
	s.sessions[session.Token] = &clone
	return nil
}

func (s *InMemory) Find(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok || session.Expired(s.clock()) {
		return nil, sentinel.ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (s *InMemory) Touch(_ context.Context, token string, lastSeenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || session.Expired(s.clock()) {
		return sentinel.ErrNotFound
	}
	session.LastSeenAt = lastSeenAt
	return nil
}

func (s *InMemory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

// DeleteByUser removes every session belonging to the user. Used when the
// account itself is deleted.
func (s *InMemory) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}
