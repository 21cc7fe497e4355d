package account

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "covault/pkg/domain"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetOrCreate upserts on the (user_id, provider) unique constraint. The
// DO UPDATE arm is a no-op write that lets RETURNING yield the surviving row,
// so concurrent first-certificate creates all see the same account.
func (s *PostgresStore) GetOrCreate(ctx context.Context, acc *Account) (*Account, error) {
	query := `
		INSERT INTO accounts (id, user_id, provider, provider_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, provider) DO UPDATE SET provider = EXCLUDED.provider
		RETURNING id, user_id, provider, provider_account_id, created_at`

	row := s.db.QueryRowContext(ctx, query,
		uuid.UUID(acc.ID), uuid.UUID(acc.UserID), acc.Provider, acc.ProviderAccountID, acc.CreatedAt)

	out, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("get or create account: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Account, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*Account, error) {
	var (
		acc               Account
		accountID, userID uuid.UUID
	)
	if err := row.Scan(&accountID, &userID, &acc.Provider, &acc.ProviderAccountID, &acc.CreatedAt); err != nil {
		return nil, err
	}
	acc.ID = id.AccountID(accountID)
	acc.UserID = id.UserID(userID)
	return &acc, nil
}
