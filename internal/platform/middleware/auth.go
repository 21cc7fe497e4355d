package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "covault/pkg/domain"
	"covault/pkg/requestcontext"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "covault_session"

// SessionResolver maps an opaque session token to the user it authenticates.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (id.UserID, error)
}

// JWTValidator validates a Bearer access token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID    string
	SessionID string
}

// RequireAuth authenticates a request from either the session cookie or a
// Bearer access token, in that order. On success the user ID lands in the
// request context; otherwise the request is refused before any handler runs.
func RequireAuth(sessions SessionResolver, validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				userID, err := sessions.ResolveSession(ctx, cookie.Value)
				if err == nil {
					ctx = requestcontext.WithUserID(ctx, userID)
					ctx = requestcontext.WithSessionID(ctx, cookie.Value)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired session")
				return
			}

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(token)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
				userID, err := id.ParseUserID(claims.UserID)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - malformed token subject",
						"request_id", requestID,
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
				ctx = requestcontext.WithUserID(ctx, userID)
				ctx = requestcontext.WithSessionID(ctx, claims.SessionID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			logger.WarnContext(ctx, "unauthorized access - no credentials",
				"request_id", requestID,
			)
			writeUnauthorized(w, "Missing session cookie or Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
