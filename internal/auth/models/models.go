// Package models holds the auth domain types.
package models

import (
	"strings"
	"time"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// User is a registered account holder. Email is normalized at construction
// and immutable afterwards; only the display name is editable.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser constructs a user with a normalized email. The password hash is
// produced by the caller; this constructor never sees a plaintext password.
func NewUser(userID id.UserID, email, passwordHash, name string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a valid email is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name is required")
	}

	return &User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lowercases and trims, matching the unique index on
// lower(email).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session is a server-side session addressed by its opaque token.
type Session struct {
	Token      string    `json:"-"`
	UserID     id.UserID `json:"user_id"`
	Device     string    `json:"device"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
