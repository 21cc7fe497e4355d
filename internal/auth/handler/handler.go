// Package handler exposes registration and session endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"covault/internal/auth/models"
	"covault/internal/auth/service"
	"covault/internal/platform/middleware"
	"covault/pkg/platform/httputil"
	"covault/pkg/requestcontext"
)

// Handler serves the auth endpoints.
type Handler struct {
	service      *service.Service
	cookieSecure bool
	logger       *slog.Logger
}

func New(svc *service.Service, cookieSecure bool, logger *slog.Logger) *Handler {
	return &Handler{service: svc, cookieSecure: cookieSecure, logger: logger}
}

// RegisterPublicRoutes mounts the unauthenticated auth endpoints.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/signin", h.SignIn)
}

// RegisterRoutes mounts the endpoints that need an authenticated caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/session", h.Session)
	r.Post("/auth/signout", h.SignOut)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *registerRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	user, err := h.service.Register(ctx, service.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *signInRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
}

type signInResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[signInRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.SignIn(ctx, service.SignInRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	httputil.WriteJSON(w, http.StatusOK, signInResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.Session.ExpiresAt,
	})
}

type sessionResponse struct {
	UserID     string    `json:"user_id"`
	Device     string    `json:"device"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.service.CurrentSession(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:     session.UserID.String(),
		Device:     session.Device,
		IPAddress:  session.IPAddress,
		CreatedAt:  session.CreatedAt,
		LastSeenAt: session.LastSeenAt,
		ExpiresAt:  session.ExpiresAt,
	})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.SignOut(ctx, requestcontext.SessionID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
