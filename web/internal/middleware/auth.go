package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
	"github.com/devilmonastery/clubhouse/web/internal/session"
)

type contextKey string

const entryKey contextKey = "session"

// AuthMiddleware guards pages that need a signed-in session.
// Credential refresh happens inside each session's backend client.
type AuthMiddleware struct {
	sessions *session.Manager
	log      *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions *session.Manager, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		log:      logger.WithComponent(log, "auth-middleware"),
	}
}

// RequireAuth redirects to the login page unless the request belongs to an
// authenticated session, which is then available through FromContext.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, err := m.sessions.Lookup(r)
		if err != nil {
			http.Redirect(w, r, urlutil.LoginURL(r.URL.RequestURI(), false), http.StatusSeeOther)
			return
		}

		if !e.Auth.IsAuthenticated() {
			expired := false
			select {
			case <-e.Expired():
				expired = true
			default:
			}
			m.log.Debug("unauthenticated session, redirecting to login",
				slog.String("session_id", e.ID),
				slog.Bool("expired", expired))
			if expired {
				_ = m.sessions.Expire(w, r, e)
			}
			http.Redirect(w, r, urlutil.LoginURL(r.URL.RequestURI(), expired), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEntry(r.Context(), e)))
	})
}

// WithEntry stores a session entry in ctx.
func WithEntry(ctx context.Context, e *session.Entry) context.Context {
	return context.WithValue(ctx, entryKey, e)
}

// FromContext returns the session placed by RequireAuth.
func FromContext(ctx context.Context) (*session.Entry, bool) {
	e, ok := ctx.Value(entryKey).(*session.Entry)
	return e, ok
}
