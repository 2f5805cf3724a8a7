package middleware

import (
	"context"
	"net/http"

	"notepad/pkg/errors"
	"notepad/pkg/models"
)

type contextKey string

const sessionKey contextKey = "session"

// AuthManager interface for authentication operations
type AuthManager interface {
	IsAuthenticated(r *http.Request) *models.Session
}

// RequireAuthAPI rejects requests without a live session and stores the
// session in the request context for handlers
func RequireAuthAPI(authManager AuthManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := authManager.IsAuthenticated(r)
			if session == nil {
				WriteError(w, errors.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a context carrying session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFrom returns the session stored by RequireAuthAPI
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok && session != nil
}

// WriteError writes err as a JSON error body with the matching status
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.HTTPStatus(err))
	writeJSON(w, errors.ToFrontendError(err))
}
