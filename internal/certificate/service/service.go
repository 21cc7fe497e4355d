package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	certmetrics "covault/internal/certificate/metrics"
	"covault/internal/certificate/models"
	"covault/internal/ownership"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/sentinel"
	"covault/pkg/requestcontext"
	"covault/pkg/secrets"
)

// CertificateStore is the persistence contract for certificates. Every read
// excludes soft-deleted rows; Update replaces all mutable columns of the row.
type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	FindByAccountIDs(ctx context.Context, accountIDs []id.AccountID) ([]*models.Certificate, error)
	FindByShareToken(ctx context.Context, token string) (*models.Certificate, error)
	Update(ctx context.Context, cert *models.Certificate) error
	SetDeletedAt(ctx context.Context, certID id.CertificateID, deletedAt time.Time) error
}

// AccountProvisioner lazily materializes the caller's default account.
type AccountProvisioner interface {
	Provision(ctx context.Context, userID id.UserID) (id.AccountID, error)
}

// CreateRequest carries the fields required to create a certificate.
type CreateRequest struct {
	CertificateNumber string
	InsuredParty      string
	InsuranceCompany  string
	EffectiveDate     time.Time
	ExpirationDate    time.Time
}

// UpdateRequest is a partial patch: nil fields are left untouched.
type UpdateRequest struct {
	CertificateNumber *string
	InsuredParty      *string
	InsuranceCompany  *string
	EffectiveDate     *time.Time
	ExpirationDate    *time.Time
}

// Service orchestrates certificate lifecycle and sharing.
type Service struct {
	certs    CertificateStore
	accounts AccountProvisioner
	owner    *ownership.Checker
	logger   *slog.Logger
	metrics  *certmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *certmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(certs CertificateStore, accounts AccountProvisioner, owner *ownership.Checker, opts ...Option) *Service {
	s := &Service{certs: certs, accounts: accounts, owner: owner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, provisions the caller's account if needed,
// derives the initial status, and persists the certificate. Validation runs
// before any store mutation so a rejected request writes nothing.
func (s *Service) Create(ctx context.Context, userID id.UserID, req CreateRequest) (*models.Certificate, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	accountID, err := s.accounts.Provision(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve account")
	}

	now := requestcontext.Now(ctx)
	cert, err := models.New(
		id.CertificateID(uuid.New()), accountID,
		req.CertificateNumber, req.InsuredParty, req.InsuranceCompany,
		req.EffectiveDate, req.ExpirationDate, now,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create certificate")
	}

	s.logEvent(ctx, "certificate created", "certificate_id", cert.ID, "user_id", userID)
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return cert, nil
}

// Get returns a certificate by id, enforcing ownership. A certificate owned
// by someone else is reported as forbidden, not masked as missing.
func (s *Service) Get(ctx context.Context, userID id.UserID, certID id.CertificateID) (*models.Certificate, error) {
	return s.loadOwned(ctx, userID, certID)
}

// List returns all live certificates across the caller's accounts, newest
// first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Certificate, error) {
	accountIDs, err := s.owner.AccountIDs(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	if len(accountIDs) == 0 {
		return []*models.Certificate{}, nil
	}
	certs, err := s.certs.FindByAccountIDs(ctx, accountIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return certs, nil
}

// Update applies a partial patch. If either date is present the resulting
// pair (patch value or stored value for the untouched side) is re-validated
// and the status recomputed; updates that touch no date never change status.
func (s *Service) Update(ctx context.Context, userID id.UserID, certID id.CertificateID, req UpdateRequest) (*models.Certificate, error) {
	cert, err := s.loadOwned(ctx, userID, certID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if req.CertificateNumber != nil {
		trimmed := strings.TrimSpace(*req.CertificateNumber)
		if trimmed == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "certificate number cannot be empty")
		}
		cert.CertificateNumber = trimmed
	}
	if req.InsuredParty != nil {
		trimmed := strings.TrimSpace(*req.InsuredParty)
		if trimmed == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "insured party cannot be empty")
		}
		cert.InsuredParty = trimmed
	}
	if req.InsuranceCompany != nil {
		trimmed := strings.TrimSpace(*req.InsuranceCompany)
		if trimmed == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "insurance company cannot be empty")
		}
		cert.InsuranceCompany = trimmed
	}

	if req.EffectiveDate != nil || req.ExpirationDate != nil {
		effective := cert.EffectiveDate
		expiration := cert.ExpirationDate
		if req.EffectiveDate != nil {
			effective = *req.EffectiveDate
		}
		if req.ExpirationDate != nil {
			expiration = *req.ExpirationDate
		}
		if err := cert.ApplyDates(effective, expiration, now); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
			}
			return nil, err
		}
	} else {
		cert.UpdatedAt = now
	}

	if err := s.certs.Update(ctx, cert); err != nil {
		return nil, wrapCertErr(err)
	}

	s.logEvent(ctx, "certificate updated", "certificate_id", cert.ID, "user_id", userID)
	return cert, nil
}

// Delete soft-deletes, stamping deletedAt. The row stays in the store but is
// invisible to every subsequent lookup.
func (s *Service) Delete(ctx context.Context, userID id.UserID, certID id.CertificateID) error {
	cert, err := s.loadOwned(ctx, userID, certID)
	if err != nil {
		return err
	}

	if err := s.certs.SetDeletedAt(ctx, cert.ID, requestcontext.Now(ctx)); err != nil {
		return wrapCertErr(err)
	}

	s.logEvent(ctx, "certificate deleted", "certificate_id", cert.ID, "user_id", userID)
	return nil
}

// Share issues the share token that grants unauthenticated read/accept
// access. Idempotent: sharing an already-shared certificate returns the
// existing token.
func (s *Service) Share(ctx context.Context, userID id.UserID, certID id.CertificateID) (*models.Certificate, error) {
	cert, err := s.loadOwned(ctx, userID, certID)
	if err != nil {
		return nil, err
	}
	if cert.IsShared() {
		return cert, nil
	}

	now := requestcontext.Now(ctx)
	// A fresh 256-bit token collides only if the generator is broken, but the
	// unique index is the arbiter; retry a couple of times on conflict.
	for attempt := 0; attempt < 3; attempt++ {
		token, err := secrets.Generate()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate share token")
		}
		if err := cert.IssueShare(token, now); err != nil {
			return nil, err
		}
		err = s.certs.Update(ctx, cert)
		if err == nil {
			s.logEvent(ctx, "certificate shared", "certificate_id", cert.ID, "user_id", userID)
			if s.metrics != nil {
				s.metrics.IncrementShared()
			}
			return cert, nil
		}
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			cert.ShareToken = ""
			continue
		}
		return nil, wrapCertErr(err)
	}
	return nil, dErrors.New(dErrors.CodeInternal, "failed to issue a unique share token")
}

// GetByShareToken resolves a certificate for the public view, stamping
// viewedAt on the first resolution. No authentication: the token is the
// credential.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*models.Certificate, error) {
	cert, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if cert.MarkViewed(requestcontext.Now(ctx)) {
		if err := s.certs.Update(ctx, cert); err != nil {
			return nil, wrapCertErr(err)
		}
		if s.metrics != nil {
			s.metrics.IncrementViewed()
		}
	}
	return cert, nil
}

// AcceptByShareToken transitions the certificate to accepted. Idempotent:
// accepting an accepted certificate returns the existing state unchanged.
func (s *Service) AcceptByShareToken(ctx context.Context, token string) (*models.Certificate, error) {
	cert, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if cert.Accept(requestcontext.Now(ctx)) {
		if err := s.certs.Update(ctx, cert); err != nil {
			return nil, wrapCertErr(err)
		}
		s.logEvent(ctx, "certificate accepted", "certificate_id", cert.ID)
		if s.metrics != nil {
			s.metrics.IncrementAccepted()
		}
	}
	return cert, nil
}

// CanModify reports whether the certificate exists, is live, and belongs to
// one of the caller's accounts. Fails closed on any lookup failure.
func (s *Service) CanModify(ctx context.Context, userID id.UserID, certID id.CertificateID) bool {
	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		return false
	}
	owns, err := s.owner.Owns(ctx, userID, cert)
	return err == nil && owns
}

func (s *Service) loadOwned(ctx context.Context, userID id.UserID, certID id.CertificateID) (*models.Certificate, error) {
	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		return nil, wrapCertErr(err)
	}
	owns, err := s.owner.Owns(ctx, userID, cert)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ownership")
	}
	if !owns {
		return nil, dErrors.New(dErrors.CodeForbidden, "certificate belongs to another account")
	}
	return cert, nil
}

func (s *Service) loadByToken(ctx context.Context, token string) (*models.Certificate, error) {
	if strings.TrimSpace(token) == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	cert, err := s.certs.FindByShareToken(ctx, token)
	if err != nil {
		return nil, wrapCertErr(err)
	}
	return cert, nil
}

func (s *Service) logEvent(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, event, attributes...)
}

func validateCreate(req CreateRequest) error {
	var missing []string
	if strings.TrimSpace(req.CertificateNumber) == "" {
		missing = append(missing, "certificate_number")
	}
	if strings.TrimSpace(req.InsuredParty) == "" {
		missing = append(missing, "insured_party")
	}
	if strings.TrimSpace(req.InsuranceCompany) == "" {
		missing = append(missing, "insurance_company")
	}
	if req.EffectiveDate.IsZero() {
		missing = append(missing, "effective_date")
	}
	if req.ExpirationDate.IsZero() {
		missing = append(missing, "expiration_date")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if err := models.ValidateDates(req.EffectiveDate, req.ExpirationDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return nil
}

func wrapCertErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "certificate store failure")
}
