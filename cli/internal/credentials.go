package cli

import (
	"log/slog"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/session"
	"github.com/devilmonastery/clubhouse/internal/storage"
)

// Credentials is the persisted session of one config context: the bearer
// credential plus the refresh cookies the backend set.
type Credentials struct {
	Session *session.Store
	store   storage.Store
}

// OpenCredentials opens the credential store of a context. Each context gets
// its own key prefix so switching contexts switches sessions.
func OpenCredentials(ctx *Context, contextName string, log *slog.Logger) (*Credentials, error) {
	if err := ValidateContextName(contextName); err != nil {
		return nil, err
	}
	dir, err := ctx.StorageDir()
	if err != nil {
		return nil, err
	}
	return newCredentials(storage.WithPrefix(storage.NewDisk(dir), "ctx-"+contextName+"-"), log), nil
}

func newCredentials(st storage.Store, log *slog.Logger) *Credentials {
	return &Credentials{
		Session: session.NewStore(st, logger.WithComponent(log, "cli-creds")),
		store:   st,
	}
}

// RestoreCookies loads saved refresh cookies into c's jar.
func (cr *Credentials) RestoreCookies(c *client.Client) {
	c.RestoreRefreshCookies(session.LoadRefreshCookies(cr.store))
}

// SaveCookies persists c's refresh cookies, or removes them once the session is gone.
func (cr *Credentials) SaveCookies(c *client.Client) error {
	if !cr.Session.IsAuthenticated() {
		return session.SaveRefreshCookies(cr.store, nil)
	}
	return session.SaveRefreshCookies(cr.store, c.RefreshCookies())
}
