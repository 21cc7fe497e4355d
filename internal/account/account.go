// Package account manages the grouping entity between a user and the
// certificates they own. One account is lazily materialized per user the
// first time they create a certificate.
package account

import (
	"context"
	"time"

	id "covault/pkg/domain"
)

// ProviderCredentials is the provider for email/password users. Kept as a
// column so future federated identities can coexist under the same user.
const ProviderCredentials = "credentials"

// Account links certificates to the user who owns them.
type Account struct {
	ID                id.AccountID `json:"id"`
	UserID            id.UserID    `json:"user_id"`
	Provider          string       `json:"provider"`
	ProviderAccountID string       `json:"provider_account_id"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Store is the persistence contract for accounts.
//
// GetOrCreate must be atomic with respect to the (UserID, Provider) pair:
// concurrent calls for the same pair converge on a single row, and the
// surviving row is returned to every caller.
type Store interface {
	GetOrCreate(ctx context.Context, acc *Account) (*Account, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*Account, error)
}

// NewCredentials builds the default account for an email/password user.
// The user's own ID doubles as the provider account ID, mirroring how
// credentials-based identities have no external account to reference.
func NewCredentials(accountID id.AccountID, userID id.UserID, now time.Time) *Account {
	return &Account{
		ID:                accountID,
		UserID:            userID,
		Provider:          ProviderCredentials,
		ProviderAccountID: userID.String(),
		CreatedAt:         now,
	}
}
