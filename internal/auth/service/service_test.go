package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"covault/internal/auth/store/session"
	"covault/internal/auth/store/user"
	"covault/internal/jwttoken"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	service  *Service
	users    *user.InMemory
	sessions *session.InMemory
	now      time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.users = user.NewInMemory()
	s.sessions = session.NewInMemory().WithClock(func() time.Time { return s.now })
	tokens := jwttoken.NewJWTService("test-key", "covault", "covault-api")
	s.service = New(s.users, s.sessions, tokens, 30*24*time.Hour, 15*time.Minute)
}

func (s *AuthServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AuthServiceSuite) register(email string) id.UserID {
	u, err := s.service.Register(s.ctx(), RegisterRequest{
		Email:    email,
		Password: "correct horse battery",
		Name:     "Pat Doe",
	})
	s.Require().NoError(err)
	return u.ID
}

func (s *AuthServiceSuite) TestRegisterNormalizesEmail() {
	u, err := s.service.Register(s.ctx(), RegisterRequest{
		Email:    "  Pat@Example.COM ",
		Password: "correct horse battery",
		Name:     "Pat Doe",
	})
	s.Require().NoError(err)
	s.Equal("pat@example.com", u.Email)
	s.NotEqual("correct horse battery", u.PasswordHash)
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmailConflicts() {
	s.register("pat@example.com")

	_, err := s.service.Register(s.ctx(), RegisterRequest{
		Email:    "PAT@example.com",
		Password: "another password",
		Name:     "Pat Again",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AuthServiceSuite) TestRegisterValidation() {
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "long enough pw", Name: "Pat"}},
		{"malformed email", RegisterRequest{Email: "not-an-email", Password: "long enough pw", Name: "Pat"}},
		{"short password", RegisterRequest{Email: "pat@example.com", Password: "short", Name: "Pat"}},
		{"blank name", RegisterRequest{Email: "pat@example.com", Password: "long enough pw", Name: "  "}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx(), tc.req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *AuthServiceSuite) TestSignInEstablishesSession() {
	userID := s.register("pat@example.com")

	result, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)
	s.Equal(userID, result.User.ID)
	s.NotEmpty(result.Session.Token)
	s.NotEmpty(result.AccessToken)
	s.True(result.Session.ExpiresAt.Equal(s.now.Add(30 * 24 * time.Hour)))

	resolved, err := s.service.ResolveSession(s.ctx(), result.Session.Token)
	s.Require().NoError(err)
	s.Equal(userID, resolved)
}

func (s *AuthServiceSuite) TestSignInWrongPassword() {
	s.register("pat@example.com")

	_, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "wrong password",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestSignInUnknownEmailMatchesWrongPassword() {
	s.register("pat@example.com")

	_, unknownErr := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "nobody@example.com",
		Password: "correct horse battery",
	})
	_, wrongErr := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "wrong password",
	})
	s.Require().Error(unknownErr)
	s.Require().Error(wrongErr)
	s.Equal(unknownErr.Error(), wrongErr.Error())
}

func (s *AuthServiceSuite) TestResolveSessionExpired() {
	s.register("pat@example.com")
	result, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)

	expired := requestcontext.WithTime(context.Background(), result.Session.ExpiresAt.Add(time.Minute))
	_, err = s.service.ResolveSession(expired, result.Session.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestResolveSessionUnknownToken() {
	_, err := s.service.ResolveSession(s.ctx(), "bogus")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestResolveSessionTouchesLastSeen() {
	s.register("pat@example.com")
	result, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)

	later := s.now.Add(2 * time.Hour)
	_, err = s.service.ResolveSession(requestcontext.WithTime(context.Background(), later), result.Session.Token)
	s.Require().NoError(err)

	current, err := s.service.CurrentSession(s.ctx(), result.Session.Token)
	s.Require().NoError(err)
	s.True(current.LastSeenAt.Equal(later))
}

func (s *AuthServiceSuite) TestSignOutRevokesSession() {
	s.register("pat@example.com")
	result, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.SignOut(s.ctx(), result.Session.Token))

	_, err = s.service.ResolveSession(s.ctx(), result.Session.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.NoError(s.service.SignOut(s.ctx(), result.Session.Token), "repeat sign-out is not an error")
}

func (s *AuthServiceSuite) TestRevokeAllSessions() {
	userID := s.register("pat@example.com")

	var tokens []string
	for range 3 {
		result, err := s.service.SignIn(s.ctx(), SignInRequest{
			Email:    "pat@example.com",
			Password: "correct horse battery",
		})
		s.Require().NoError(err)
		tokens = append(tokens, result.Session.Token)
	}

	s.Require().NoError(s.service.RevokeAllSessions(s.ctx(), userID))
	for _, token := range tokens {
		_, err := s.service.ResolveSession(s.ctx(), token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}

func (s *AuthServiceSuite) TestAccessTokenCarriesUserAndSession() {
	userID := s.register("pat@example.com")
	result, err := s.service.SignIn(s.ctx(), SignInRequest{
		Email:    "pat@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)

	validator := jwttoken.NewJWTService("test-key", "covault", "covault-api")
	claims, err := validator.ValidateToken(result.AccessToken)
	s.Require().NoError(err)
	s.Equal(uuid.UUID(userID).String(), claims.UserID)
	s.Equal(result.Session.Token, claims.SessionID)
}
