package models

import (
	"strings"
	"time"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// Status is the lifecycle state of a certificate.
//
// Pending, active, and expired are derived from the effective/expiration pair
// at write time. Accepted is terminal: it is set by the public accept action
// and survives later date edits.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusAccepted Status = "accepted"
)

// Certificate is the aggregate root for a certificate of insurance.
//
// Invariants:
//   - ExpirationDate is strictly after EffectiveDate
//   - Status is derived, never client-settable; recomputed only on writes
//     that touch a date, and never once AcceptedAt is set
//   - ShareToken, once issued, is stable and unique across all certificates
//   - ViewedAt is stamped once (first view wins)
//   - A certificate with DeletedAt set is invisible to every lookup
type Certificate struct {
	ID                id.CertificateID `json:"id"`
	CertificateNumber string           `json:"certificate_number"`
	InsuredParty      string           `json:"insured_party"`
	InsuranceCompany  string           `json:"insurance_company"`
	EffectiveDate     time.Time        `json:"effective_date"`
	ExpirationDate    time.Time        `json:"expiration_date"`
	Status            Status           `json:"status"`
	AccountID         id.AccountID     `json:"account_id"`
	ShareToken        string           `json:"share_token,omitempty"`
	ViewedAt          *time.Time       `json:"viewed_at,omitempty"`
	AcceptedAt        *time.Time       `json:"accepted_at,omitempty"`
	DeletedAt         *time.Time       `json:"-"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DeriveStatus computes the date-derived status for the given instant.
// Precedence: expired when now is past expiration, active when now is within
// [effective, expiration] (both endpoints inclusive), pending otherwise.
func DeriveStatus(effective, expiration, now time.Time) Status {
	if now.After(expiration) {
		return StatusExpired
	}
	if !now.Before(effective) {
		return StatusActive
	}
	return StatusPending
}

// ValidateDates enforces the strict ordering invariant shared by creation and
// every date-touching update.
func ValidateDates(effective, expiration time.Time) error {
	if effective.IsZero() || expiration.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "effective and expiration dates are required")
	}
	if !expiration.After(effective) {
		return dErrors.New(dErrors.CodeInvariantViolation, "expiration date must be after effective date")
	}
	return nil
}

// New constructs a certificate, validating invariants and deriving the
// initial status from now.
func New(certID id.CertificateID, accountID id.AccountID, number, insuredParty, company string, effective, expiration, now time.Time) (*Certificate, error) {
	number = strings.TrimSpace(number)
	insuredParty = strings.TrimSpace(insuredParty)
	company = strings.TrimSpace(company)

	if number == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate number cannot be empty")
	}
	if insuredParty == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "insured party cannot be empty")
	}
	if company == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "insurance company cannot be empty")
	}
	if err := ValidateDates(effective, expiration); err != nil {
		return nil, err
	}

	return &Certificate{
		ID:                certID,
		CertificateNumber: number,
		InsuredParty:      insuredParty,
		InsuranceCompany:  company,
		EffectiveDate:     effective,
		ExpirationDate:    expiration,
		Status:            DeriveStatus(effective, expiration, now),
		AccountID:         accountID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// OwnerAccountID satisfies ownership.Resource.
func (c *Certificate) OwnerAccountID() id.AccountID {
	return c.AccountID
}

func (c *Certificate) IsAccepted() bool {
	return c.AcceptedAt != nil
}

func (c *Certificate) IsDeleted() bool {
	return c.DeletedAt != nil
}

func (c *Certificate) IsShared() bool {
	return c.ShareToken != ""
}

// ApplyDates re-validates and applies a new date pair, recomputing the
// derived status. Acceptance is terminal: once AcceptedAt is set, the status
// stays accepted regardless of the new dates.
func (c *Certificate) ApplyDates(effective, expiration, now time.Time) error {
	if err := ValidateDates(effective, expiration); err != nil {
		return err
	}
	c.EffectiveDate = effective
	c.ExpirationDate = expiration
	if !c.IsAccepted() {
		c.Status = DeriveStatus(effective, expiration, now)
	}
	c.UpdatedAt = now
	return nil
}

// IssueShare attaches a share token. Idempotent at the caller's discretion:
// issuing over an existing token is an invariant violation, callers return
// the existing token instead.
func (c *Certificate) IssueShare(token string, now time.Time) error {
	if token == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "share token cannot be empty")
	}
	if c.IsShared() {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is already shared")
	}
	c.ShareToken = token
	c.UpdatedAt = now
	return nil
}

// MarkViewed stamps ViewedAt on the first public view. Later views are
// no-ops; the first timestamp is the record of interest.
// Reports whether the certificate changed.
func (c *Certificate) MarkViewed(now time.Time) bool {
	if c.ViewedAt != nil {
		return false
	}
	t := now
	c.ViewedAt = &t
	c.UpdatedAt = now
	return true
}

// Accept transitions the certificate to the terminal accepted state.
// Idempotent: accepting an already-accepted certificate changes nothing.
// An accept implies a view, so ViewedAt is stamped if still unset.
// Reports whether the certificate changed.
func (c *Certificate) Accept(now time.Time) bool {
	if c.IsAccepted() {
		return false
	}
	t := now
	c.AcceptedAt = &t
	if c.ViewedAt == nil {
		c.ViewedAt = &t
	}
	c.Status = StatusAccepted
	c.UpdatedAt = now
	return true
}
