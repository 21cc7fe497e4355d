package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "covault/pkg/domain"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AccountStoreSuite) TestGetOrCreate() {
	userID := id.UserID(uuid.New())

	s.Run("creates on first call", func() {
		acc := NewCredentials(id.AccountID(uuid.New()), userID, time.Now())
		got, err := s.store.GetOrCreate(s.ctx, acc)
		s.Require().NoError(err)
		s.Equal(acc.ID, got.ID)
	})

	s.Run("returns the existing account on repeat calls", func() {
		first := NewCredentials(id.AccountID(uuid.New()), userID, time.Now())
		created, err := s.store.GetOrCreate(s.ctx, first)
		s.Require().NoError(err)

		second := NewCredentials(id.AccountID(uuid.New()), userID, time.Now())
		got, err := s.store.GetOrCreate(s.ctx, second)
		s.Require().NoError(err)
		s.Equal(created.ID, got.ID, "second call must not create a new account")
	})
}

// TestGetOrCreateRace verifies that concurrent lazy creates for one user
// converge on a single account.
func (s *AccountStoreSuite) TestGetOrCreateRace() {
	userID := id.UserID(uuid.New())
	const goroutines = 50

	var wg sync.WaitGroup
	results := make([]id.AccountID, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			acc := NewCredentials(id.AccountID(uuid.New()), userID, time.Now())
			got, err := s.store.GetOrCreate(context.Background(), acc)
			if err == nil {
				results[idx] = got.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		s.Equal(results[0], results[i], "all callers must observe the same account")
	}

	accounts, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(accounts, 1)
}

func (s *AccountStoreSuite) TestListByUser() {
	userA := id.UserID(uuid.New())
	userB := id.UserID(uuid.New())

	_, err := s.store.GetOrCreate(s.ctx, NewCredentials(id.AccountID(uuid.New()), userA, time.Now()))
	s.Require().NoError(err)

	accounts, err := s.store.ListByUser(s.ctx, userB)
	s.Require().NoError(err)
	s.Empty(accounts, "user B has no accounts")
}
