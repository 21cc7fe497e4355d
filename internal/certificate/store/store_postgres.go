package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"covault/internal/certificate/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

const certificateColumns = `
	id, certificate_number, insured_party, insurance_company,
	effective_date, expiration_date, status, account_id,
	share_token, viewed_at, accepted_at, deleted_at, created_at, updated_at`

// PostgresStore persists certificates in PostgreSQL. Every read filters on
// deleted_at IS NULL so soft-deleted rows are invisible at the query level.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO insurance_certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID), cert.CertificateNumber, cert.InsuredParty, cert.InsuranceCompany,
		cert.EffectiveDate, cert.ExpirationDate, string(cert.Status), uuid.UUID(cert.AccountID),
		nullString(cert.ShareToken), cert.ViewedAt, cert.AcceptedAt, cert.DeletedAt,
		cert.CreatedAt, cert.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM insurance_certificates
		WHERE id = $1 AND deleted_at IS NULL`

	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) FindByAccountIDs(ctx context.Context, accountIDs []id.AccountID) ([]*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM insurance_certificates
		WHERE account_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC`

	ids := make([]uuid.UUID, len(accountIDs))
	for i, accountID := range accountIDs {
		ids[i] = uuid.UUID(accountID)
	}

	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	out := []*models.Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByShareToken(ctx context.Context, token string) (*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM insurance_certificates
		WHERE share_token = $1 AND deleted_at IS NULL`

	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate by token: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) Update(ctx context.Context, cert *models.Certificate) error {
	query := `
		UPDATE insurance_certificates
		SET certificate_number = $2, insured_party = $3, insurance_company = $4,
			effective_date = $5, expiration_date = $6, status = $7,
			share_token = $8, viewed_at = $9, accepted_at = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID), cert.CertificateNumber, cert.InsuredParty, cert.InsuranceCompany,
		cert.EffectiveDate, cert.ExpirationDate, string(cert.Status),
		nullString(cert.ShareToken), cert.ViewedAt, cert.AcceptedAt, cert.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetDeletedAt(ctx context.Context, certID id.CertificateID, deletedAt time.Time) error {
	query := `
		UPDATE insurance_certificates
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, uuid.UUID(certID), deletedAt)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*models.Certificate, error) {
	var (
		cert              models.Certificate
		certID, accountID uuid.UUID
		status            string
		shareToken        sql.NullString
	)
	err := row.Scan(
		&certID, &cert.CertificateNumber, &cert.InsuredParty, &cert.InsuranceCompany,
		&cert.EffectiveDate, &cert.ExpirationDate, &status, &accountID,
		&shareToken, &cert.ViewedAt, &cert.AcceptedAt, &cert.DeletedAt,
		&cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cert.ID = id.CertificateID(certID)
	cert.AccountID = id.AccountID(accountID)
	cert.Status = models.Status(status)
	cert.ShareToken = shareToken.String
	return &cert, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
