package middleware

import (
	"net"
	"net/http"

	"github.com/google/uuid"

	"covault/pkg/requestcontext"
)

// RequestMeta stamps each request with a request ID, a request-scoped time,
// and client metadata (IP, User-Agent). Everything downstream reads these
// through pkg/requestcontext, so handlers and services never touch *http.Request
// for them.
func RequestMeta() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = requestcontext.WithRequestID(ctx, requestID)
			ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
			ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), r.UserAgent())

			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
