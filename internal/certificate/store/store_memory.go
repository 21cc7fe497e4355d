// Package store provides certificate persistence. The in-memory variant
// backs unit tests and local development; the postgres variant is the
// production store.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"covault/internal/certificate/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store. Reads return copies so callers can
// mutate results without racing the store.
type InMemory struct {
	mu    sync.RWMutex
	certs map[id.CertificateID]*models.Certificate
}

func NewInMemory() *InMemory {
	return &InMemory{certs: make(map[id.CertificateID]*models.Certificate)}
}

func (s *InMemory) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certs[cert.ID]; exists {
		return sentinel.ErrConflict
	}
	if cert.ShareToken != "" && s.tokenTaken(cert.ShareToken, cert.ID) {
		return sentinel.ErrAlreadyUsed
	}
	clone := *cert
	s.certs[cert.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[certID]
	if !ok || cert.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	clone := *cert
	return &clone, nil
}

func (s *InMemory) FindByAccountIDs(_ context.Context, accountIDs []id.AccountID) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[id.AccountID]struct{}, len(accountIDs))
	for _, accountID := range accountIDs {
		wanted[accountID] = struct{}{}
	}

	var out []*models.Certificate
	for _, cert := range s.certs {
		if cert.IsDeleted() {
			continue
		}
		if _, ok := wanted[cert.AccountID]; !ok {
			continue
		}
		clone := *cert
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if out == nil {
		out = []*models.Certificate{}
	}
	return out, nil
}

func (s *InMemory) FindByShareToken(_ context.Context, token string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cert := range s.certs {
		if cert.ShareToken == token && !cert.IsDeleted() {
			clone := *cert
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.certs[cert.ID]
	if !ok || existing.IsDeleted() {
		return sentinel.ErrNotFound
	}
	if cert.ShareToken != "" && s.tokenTaken(cert.ShareToken, cert.ID) {
		return sentinel.ErrAlreadyUsed
	}
	clone := *cert
	s.certs[cert.ID] = &clone
	return nil
}

func (s *InMemory) SetDeletedAt(_ context.Context, certID id.CertificateID, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[certID]
	if !ok || cert.IsDeleted() {
		return sentinel.ErrNotFound
	}
	t := deletedAt
	cert.DeletedAt = &t
	cert.UpdatedAt = deletedAt
	return nil
}

// Len reports live plus soft-deleted rows; tests use it to assert soft
// deletes retain the row.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}

func (s *InMemory) tokenTaken(token string, ownerID id.CertificateID) bool {
	for _, other := range s.certs {
		if other.ID != ownerID && other.ShareToken == token {
			return true
		}
	}
	return false
}
