//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"covault/internal/account"
	"covault/internal/auth/models"
	certmodels "covault/internal/certificate/models"
	"covault/internal/certificate/store"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
	"covault/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	store     *store.PostgresStore
	accounts  *account.PostgresStore
	userID    id.UserID
	accountID id.AccountID
	now       time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
	s.accounts = account.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.Truncate(ctx))

	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.userID = id.UserID(uuid.New())
	s.seedUser(ctx, s.userID, "owner@example.com")

	acc, err := s.accounts.GetOrCreate(ctx, account.NewCredentials(id.AccountID(uuid.New()), s.userID, s.now))
	s.Require().NoError(err)
	s.accountID = acc.ID
}

func (s *PostgresStoreSuite) seedUser(ctx context.Context, userID id.UserID, email string) {
	user, err := models.NewUser(userID, email, "hash", "Owner", s.now)
	s.Require().NoError(err)
	_, err = s.pg.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.Name, user.CreatedAt, user.UpdatedAt)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newCertificate() *certmodels.Certificate {
	cert, err := certmodels.New(
		id.CertificateID(uuid.New()), s.accountID,
		"COI-1001", "Acme Logistics", "Mutual of Omaha",
		s.now.AddDate(0, -1, 0), s.now.AddDate(1, 0, 0), s.now,
	)
	s.Require().NoError(err)
	return cert
}

func (s *PostgresStoreSuite) TestCreateAndFindByID() {
	ctx := context.Background()
	cert := s.newCertificate()
	s.Require().NoError(s.store.Create(ctx, cert))

	found, err := s.store.FindByID(ctx, cert.ID)
	s.Require().NoError(err)
	s.Equal(cert.ID, found.ID)
	s.Equal(certmodels.StatusActive, found.Status)
	s.Empty(found.ShareToken)
	s.Nil(found.ViewedAt)
}

func (s *PostgresStoreSuite) TestFindByAccountIDsOrderAndSoftDelete() {
	ctx := context.Background()

	older := s.newCertificate()
	s.Require().NoError(s.store.Create(ctx, older))

	newer := s.newCertificate()
	newer.CreatedAt = s.now.Add(time.Hour)
	s.Require().NoError(s.store.Create(ctx, newer))

	certs, err := s.store.FindByAccountIDs(ctx, []id.AccountID{s.accountID})
	s.Require().NoError(err)
	s.Require().Len(certs, 2)
	s.Equal(newer.ID, certs[0].ID)

	s.Require().NoError(s.store.SetDeletedAt(ctx, newer.ID, s.now.Add(2*time.Hour)))

	certs, err = s.store.FindByAccountIDs(ctx, []id.AccountID{s.accountID})
	s.Require().NoError(err)
	s.Require().Len(certs, 1)
	s.Equal(older.ID, certs[0].ID)

	_, err = s.store.FindByID(ctx, newer.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestShareTokenUniqueAcrossRows() {
	ctx := context.Background()

	first := s.newCertificate()
	s.Require().NoError(first.IssueShare("token-abc", s.now))
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newCertificate()
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(second.IssueShare("token-abc", s.now))

	s.ErrorIs(s.store.Update(ctx, second), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestFindByShareToken() {
	ctx := context.Background()

	cert := s.newCertificate()
	s.Require().NoError(cert.IssueShare("token-abc", s.now))
	s.Require().NoError(s.store.Create(ctx, cert))

	found, err := s.store.FindByShareToken(ctx, "token-abc")
	s.Require().NoError(err)
	s.Equal(cert.ID, found.ID)

	_, err = s.store.FindByShareToken(ctx, "token-missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdatePersistsLifecycleTimestamps() {
	ctx := context.Background()

	cert := s.newCertificate()
	s.Require().NoError(cert.IssueShare("token-abc", s.now))
	s.Require().NoError(s.store.Create(ctx, cert))

	s.Require().True(cert.MarkViewed(s.now.Add(time.Minute)))
	s.Require().True(cert.Accept(s.now.Add(2 * time.Minute)))
	s.Require().NoError(s.store.Update(ctx, cert))

	found, err := s.store.FindByShareToken(ctx, "token-abc")
	s.Require().NoError(err)
	s.Equal(certmodels.StatusAccepted, found.Status)
	s.Require().NotNil(found.ViewedAt)
	s.Require().NotNil(found.AcceptedAt)
	s.True(found.ViewedAt.Before(*found.AcceptedAt))
}

func (s *PostgresStoreSuite) TestUpdateDeletedRowIsNotFound() {
	ctx := context.Background()

	cert := s.newCertificate()
	s.Require().NoError(s.store.Create(ctx, cert))
	s.Require().NoError(s.store.SetDeletedAt(ctx, cert.ID, s.now))

	cert.CertificateNumber = "COI-9999"
	s.ErrorIs(s.store.Update(ctx, cert), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAccountUpsertConverges() {
	ctx := context.Background()

	first, err := s.accounts.GetOrCreate(ctx, account.NewCredentials(id.AccountID(uuid.New()), s.userID, s.now))
	s.Require().NoError(err)
	second, err := s.accounts.GetOrCreate(ctx, account.NewCredentials(id.AccountID(uuid.New()), s.userID, s.now))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}
