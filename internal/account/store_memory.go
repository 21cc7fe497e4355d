package account

import (
	"context"
	"sync"

	id "covault/pkg/domain"
)

// InMemory keeps accounts in a map guarded by a mutex. The lock spans the
// whole GetOrCreate so the lazy-create race cannot produce two accounts for
// one (user, provider) pair.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.AccountID]*Account)}
}

func (s *InMemory) GetOrCreate(_ context.Context, acc *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.UserID == acc.UserID && existing.Provider == acc.Provider {
			cp := *existing
			return &cp, nil
		}
	}

	cp := *acc
	s.accounts[acc.ID] = &cp
	out := cp
	return &out, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Account
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}
