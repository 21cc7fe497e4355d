// Package ownership answers "does this resource belong to this user" for any
// account-owned resource. The account-lookup-then-contains logic lives here
// once instead of being repeated per resource type.
package ownership

import (
	"context"
	"fmt"

	"covault/internal/account"
	id "covault/pkg/domain"
)

// Resource is anything owned through an account.
type Resource interface {
	OwnerAccountID() id.AccountID
}

// AccountLister is the slice of the account store the checker needs.
type AccountLister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]*account.Account, error)
}

// Checker resolves ownership through the caller's account set. It is
// stateless and safe for concurrent use; every call re-reads the store, so
// ownership is never cached across requests.
type Checker struct {
	accounts AccountLister
}

func NewChecker(accounts AccountLister) *Checker {
	return &Checker{accounts: accounts}
}

// Owns reports whether the resource's owning account is among the user's
// accounts. Fails closed: a store error yields false with the error.
func (c *Checker) Owns(ctx context.Context, userID id.UserID, res Resource) (bool, error) {
	if res == nil || userID.IsZero() {
		return false, nil
	}
	accounts, err := c.accounts.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list accounts for ownership check: %w", err)
	}
	for _, acc := range accounts {
		if acc.ID == res.OwnerAccountID() {
			return true, nil
		}
	}
	return false, nil
}

// AccountIDs returns the user's account IDs, preserving store order.
func (c *Checker) AccountIDs(ctx context.Context, userID id.UserID) ([]id.AccountID, error) {
	accounts, err := c.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	ids := make([]id.AccountID, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID)
	}
	return ids, nil
}
