// Package service implements user profile operations. The email is fixed at
// registration; only the display name is editable here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"covault/internal/auth/models"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/sentinel"
	"covault/pkg/requestcontext"
)

// UserStore is the slice of the user store this service needs.
type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
}

// SessionRevoker tears down sessions when an account is deleted.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID id.UserID) error
}

type UpdateRequest struct {
	Name string
}

// Service implements profile reads and writes.
type Service struct {
	users    UserStore
	sessions SessionRevoker
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(users UserStore, sessions SessionRevoker, opts ...Option) *Service {
	s := &Service{users: users, sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's profile.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// Update renames the profile. Users can only modify themselves; there is no
// admin role.
func (s *Service) Update(ctx context.Context, callerID, targetID id.UserID, req UpdateRequest) (*models.User, error) {
	if callerID != targetID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot modify another user")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}

	user, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user updated", "user_id", user.ID)
	}
	return user, nil
}

// Delete removes the account and revokes every session it holds.
func (s *Service) Delete(ctx context.Context, callerID, targetID id.UserID) error {
	if callerID != targetID {
		return dErrors.New(dErrors.CodeForbidden, "cannot delete another user")
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	if err := s.sessions.RevokeAllSessions(ctx, targetID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions of deleted user",
			"user_id", targetID,
			"error", err,
		)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user deleted", "user_id", targetID)
	}
	return nil
}
