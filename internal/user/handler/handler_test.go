package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	authservice "covault/internal/auth/service"
	"covault/internal/auth/store/session"
	"covault/internal/auth/store/user"
	"covault/internal/jwttoken"
	"covault/internal/platform/middleware"
	"covault/internal/user/service"
)

type UserHandlerSuite struct {
	suite.Suite
	router *chi.Mux
	auth   *authservice.Service
}

func TestUserHandlerSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerSuite))
}

func (s *UserHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := user.NewInMemory()
	sessions := session.NewInMemory()
	tokens := jwttoken.NewJWTService("test-key", "covault", "covault-api")
	s.auth = authservice.New(users, sessions, tokens, 30*24*time.Hour, 15*time.Minute)
	h := New(service.New(users, s.auth), logger)

	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.auth, jwttoken.NewJWTServiceAdapter(tokens), logger))
		h.RegisterRoutes(r)
	})
}

func (s *UserHandlerSuite) signUp(email string) (string, *http.Cookie) {
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	u, err := s.auth.Register(ctx, authservice.RegisterRequest{
		Email:    email,
		Password: "correct horse battery",
		Name:     "Pat Doe",
	})
	s.Require().NoError(err)

	result, err := s.auth.SignIn(ctx, authservice.SignInRequest{
		Email:    email,
		Password: "correct horse battery",
	})
	s.Require().NoError(err)

	return u.ID.String(), &http.Cookie{Name: middleware.SessionCookie, Value: result.Session.Token}
}

func (s *UserHandlerSuite) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *UserHandlerSuite) TestMeReturnsProfile() {
	_, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodGet, "/users/me", nil, cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "pat@example.com")
	s.NotContains(rec.Body.String(), "password")
}

func (s *UserHandlerSuite) TestMeWithoutSessionReturns401() {
	rec := s.do(http.MethodGet, "/users/me", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *UserHandlerSuite) TestUpdateOwnName() {
	userID, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodPut, "/users/"+userID, map[string]any{"name": "Pat Renamed"}, cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Pat Renamed")
}

func (s *UserHandlerSuite) TestUpdateAnotherUserReturns403() {
	otherID, _ := s.signUp("other@example.com")
	_, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodPut, "/users/"+otherID, map[string]any{"name": "Hijack"}, cookie)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *UserHandlerSuite) TestUpdateMalformedIDReturns404() {
	_, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodPut, "/users/not-a-uuid", map[string]any{"name": "X"}, cookie)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *UserHandlerSuite) TestDeleteSelfRevokesSession() {
	userID, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodDelete, "/users/"+userID, nil, cookie)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/users/me", nil, cookie)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *UserHandlerSuite) TestDeleteAnotherUserReturns403() {
	otherID, _ := s.signUp("other@example.com")
	_, cookie := s.signUp("pat@example.com")

	rec := s.do(http.MethodDelete, "/users/"+otherID, nil, cookie)
	s.Equal(http.StatusForbidden, rec.Code)
}
