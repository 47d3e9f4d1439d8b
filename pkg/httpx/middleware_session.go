package httpx

import (
	"net/http"
	"strings"

	"github.com/deafco/sonicsuite/pkg/slogx"
)

// SessionVerifier validates a session token and returns the user id it was
// minted for.
type SessionVerifier interface {
	VerifySession(token string) (userID string, err error)
}

// SessionMiddleware authenticates requests via a session token, looked up
// first in the Authorization header (Bearer scheme) and then in the named
// cookie. On success the user id is attached to the request context.
func SessionMiddleware(v SessionVerifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := sessionTokenFromRequest(r, cookieName)
			if raw == "" {
				writeSessionError(w, "missing session token")
				return
			}

			userID, err := v.VerifySession(raw)
			if err != nil {
				log.Warn("session verification failed", "err", err)
				writeSessionError(w, "session invalid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUserID(ctx, userID)))
		})
	}
}

func sessionTokenFromRequest(r *http.Request, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// writeSessionError returns 401 with a reauthorize hint so the UI routes the
// user back to /login instead of spinning on a dead session.
func writeSessionError(w http.ResponseWriter, desc string) {
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"error":             "not_authorized",
		"error_description": desc,
		"reauthorize":       true,
	})
}
