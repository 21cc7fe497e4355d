// Package domain holds shared domain primitives: typed entity IDs used across
// features. Typed IDs make cross-entity assignment a compile error and force
// validation at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "covault/pkg/domain-errors"
)

// Typed UUIDs for the three aggregate roots. Construct via the Parse
// functions at trust boundaries; direct casting bypasses validation.
type (
	UserID        uuid.UUID
	AccountID     uuid.UUID
	CertificateID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id AccountID) String() string     { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText give typed IDs their canonical UUID form in JSON.
func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id CertificateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *CertificateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCertificateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID constructs a UserID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseAccountID constructs an AccountID from external input.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
}

// ParseCertificateID constructs a CertificateID from external input.
func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s, "certificate id")
	return CertificateID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}
