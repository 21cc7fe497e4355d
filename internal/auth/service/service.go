// Package service implements registration, sign-in, and session resolution.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"covault/internal/auth/device"
	"covault/internal/auth/models"
	"covault/internal/platform/metrics"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/sentinel"
	"covault/pkg/requestcontext"
	"covault/pkg/secrets"
)

const minPasswordLength = 8

// UserStore is the persistence contract for users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
}

// SessionStore is the persistence contract for sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, token string) (*models.Session, error)
	Touch(ctx context.Context, token string, lastSeenAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// TokenIssuer mints the Bearer access tokens handed out at sign-in.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, sessionToken string, expiresIn time.Duration) (string, error)
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

type SignInRequest struct {
	Email    string
	Password string
}

// SignInResult bundles everything the handler needs to establish both
// credential paths: the cookie session and the Bearer token.
type SignInResult struct {
	User        *models.User
	Session     *models.Session
	AccessToken string
}

// Service implements the authentication flows.
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     TokenIssuer
	sessionTTL time.Duration
	accessTTL  time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(users UserStore, sessions SessionStore, tokens TokenIssuer, sessionTTL, accessTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		accessTTL:  accessTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt-hashed password. Email uniqueness is
// case-insensitive and enforced by the store.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.UserID(uuid.New()), req.Email, hash, req.Name, now)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logEvent(ctx, "user registered", "user_id", user.ID)
	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
	}
	return user, nil
}

// SignIn verifies credentials and establishes a session. Unknown email and
// wrong password produce the same unauthorized failure so the endpoint does
// not confirm which emails are registered.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.signInFailure(ctx, "unknown email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, s.signInFailure(ctx, "wrong password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session token")
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		Token:      token,
		UserID:     user.ID,
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		IPAddress:  requestcontext.ClientIP(ctx),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	accessToken, err := s.tokens.GenerateAccessToken(uuid.UUID(user.ID), token, s.accessTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.logEvent(ctx, "user signed in", "user_id", user.ID, "device", session.Device)
	if s.metrics != nil {
		s.metrics.IncrementSignIn("success")
	}
	return &SignInResult{User: user, Session: session, AccessToken: accessToken}, nil
}

// SignOut revokes the session. Revoking an unknown or already-revoked token
// succeeds; the end state is the same either way.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.logEvent(ctx, "user signed out")
	return nil
}

// RevokeAllSessions removes every session for the user, e.g. on account
// deletion.
func (s *Service) RevokeAllSessions(ctx context.Context, userID id.UserID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	return nil
}

// ResolveSession authenticates an opaque session token, bumping its
// last-seen timestamp. Satisfies the auth middleware's resolver contract.
func (s *Service) ResolveSession(ctx context.Context, token string) (id.UserID, error) {
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}

	now := requestcontext.Now(ctx)
	if session.Expired(now) {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
	}

	// Best effort; an authenticated request must not fail on bookkeeping.
	if err := s.sessions.Touch(ctx, token, now); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to touch session", "error", err)
	}
	return session.UserID, nil
}

// CurrentSession returns the session for an already-authenticated token.
func (s *Service) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return session, nil
}

func (s *Service) signInFailure(ctx context.Context, reason string) error {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "sign-in rejected",
			"reason", reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementSignIn("failure")
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
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

func validateRegister(req RegisterRequest) error {
	email := models.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}
