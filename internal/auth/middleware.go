package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// RequireUser fully verifies the session token from the cookie and injects the
// authenticated user ID into the request context. This is where session claims
// become trusted; the perimeter gate only checks cookie presence.
func RequireUser(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
				return
			}

			subject, err := tokens.VerifySessionToken(cookie.Value)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired session"})
				return
			}

			userID, err := uuid.Parse(subject)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired session"})
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user ID set by RequireUser.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	return userID, ok
}

// ContextWithUserID injects a user ID, for tests and non-HTTP callers.
func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
