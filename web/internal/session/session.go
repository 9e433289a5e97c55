package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/auth"
	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/dashboard"
	"github.com/devilmonastery/clubhouse/internal/pkg/idgen"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/metrics"
	core "github.com/devilmonastery/clubhouse/internal/session"
	"github.com/devilmonastery/clubhouse/internal/storage"
)

const (
	// SessionName is the name of the session cookie
	SessionName = "clubhouse_session"

	// IDKey is the cookie value naming the server-side session
	IDKey = "sid"
)

// ErrNoSession means the request carries no usable session cookie.
var ErrNoSession = errors.New("no session")

// Entry is one browser session: its own credential, refresh gateway and
// backend client, so concurrent browsers never share a refresh.
type Entry struct {
	ID        string
	Auth      *auth.Service
	API       *api.API
	Client    *client.Client
	Dashboard *dashboard.Loader

	storage  core.Storage
	expired  chan struct{}
	once     sync.Once
	mu       sync.Mutex
	lastUsed time.Time
}

// Expired is closed when a failed refresh tore the session down.
func (e *Entry) Expired() <-chan struct{} {
	return e.expired
}

func (e *Entry) markExpired() {
	e.once.Do(func() { close(e.expired) })
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastUsed = now
	e.mu.Unlock()
}

func (e *Entry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

// Options configures a Manager.
type Options struct {
	Secret      []byte
	MaxAge      time.Duration
	IdleTimeout time.Duration
	Secure      bool
	// Storage persists credentials; each session gets its own key prefix
	Storage storage.Store
	Client  client.Config
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

// Manager maps browser cookies to server-side session entries.
type Manager struct {
	store   *sessions.CookieStore
	opts    Options
	clock   clockwork.Clock
	log     *slog.Logger
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewManager creates a new session manager
// Secret should be 32 bytes for AES-256
func NewManager(opts Options) *Manager {
	store := sessions.NewCookieStore(opts.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemory()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Manager{
		store:   store,
		opts:    opts,
		clock:   clock,
		log:     logger.WithComponent(opts.Logger, "web-session"),
		entries: make(map[string]*Entry),
	}
}

// Start creates a fresh session, replacing any the request carried.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request) (*Entry, error) {
	sess, _ := m.store.New(r, SessionName)
	id := idgen.SessionID()
	sess.Values[IDKey] = id
	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save session cookie: %w", err)
	}
	return m.entry(id)
}

// Lookup returns the session the request belongs to, restoring it from
// storage after a restart or idle eviction.
func (m *Manager) Lookup(r *http.Request) (*Entry, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return nil, ErrNoSession
	}
	id, ok := sess.Values[IDKey].(string)
	if !ok || id == "" {
		return nil, ErrNoSession
	}
	return m.entry(id)
}

// AddFlash queues a one-time message shown on the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return ErrNoSession
	}
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// Flash pops the queued message, "" when there is none. It must be called
// before the response body is written.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request) string {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(r, w); err != nil {
		m.log.Warn("failed to save session after reading flash", slog.String("error", err.Error()))
	}
	msg, _ := flashes[0].(string)
	return msg
}

func (m *Manager) entry(id string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; ok {
		e.touch(m.clock.Now())
		return e, nil
	}

	st := storage.WithPrefix(m.opts.Storage, id+"-")
	e := &Entry{ID: id, storage: st, expired: make(chan struct{}), lastUsed: m.clock.Now()}

	cfg := m.opts.Client
	cfg.Logger = m.log.With(slog.String("session_id", id))
	cfg.OnSessionExpired = e.markExpired
	svc, a, c, err := auth.Connect(cfg, core.NewStore(st, cfg.Logger))
	if err != nil {
		return nil, err
	}
	c.RestoreRefreshCookies(core.LoadRefreshCookies(st))

	e.Auth, e.API, e.Client = svc, a, c
	e.Dashboard = dashboard.NewLoader(a, svc.CurrentUser, cfg.Logger)
	m.entries[id] = e
	metrics.ActiveSessions.Inc()
	return e, nil
}

// Persist saves the entry's refresh cookies so it survives eviction.
func (m *Manager) Persist(e *Entry) {
	cookies := e.Client.RefreshCookies()
	if !e.Auth.IsAuthenticated() {
		cookies = nil
	}
	if err := core.SaveRefreshCookies(e.storage, cookies); err != nil {
		m.log.Warn("failed to persist session cookies",
			slog.String("session_id", e.ID),
			slog.String("error", err.Error()))
	}
}

// Destroy logs the session out of the backend, forgets it and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if e, err := m.Lookup(r); err == nil {
		if err := e.Auth.Logout(ctx); err != nil {
			m.log.Warn("logout failed", slog.String("session_id", e.ID), slog.String("error", err.Error()))
		}
		m.Persist(e)
		m.forget(e.ID)
	}
	return m.clearCookie(w, r)
}

// Expire drops a session whose credential could not be renewed.
func (m *Manager) Expire(w http.ResponseWriter, r *http.Request, e *Entry) error {
	m.Persist(e)
	m.forget(e.ID)
	return m.clearCookie(w, r)
}

func (m *Manager) clearCookie(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		sess, _ = m.store.New(r, SessionName)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; ok {
		delete(m.entries, id)
		metrics.ActiveSessions.Dec()
	}
}

// Sweep evicts entries idle longer than the idle timeout. Their credentials
// stay in storage, so the next request restores them.
func (m *Manager) Sweep() int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.opts.IdleTimeout)

	evicted := 0
	for _, e := range m.idleEntries(cutoff) {
		if m.evictIfIdle(e, cutoff) {
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Debug("evicted idle sessions", slog.Int("count", evicted))
	}
	return evicted
}

func (m *Manager) idleEntries(cutoff time.Time) []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var idle []*Entry
	for _, e := range m.entries {
		if e.idleSince().Before(cutoff) {
			idle = append(idle, e)
		}
	}
	return idle
}

// evictIfIdle drops e unless it was used after cutoff, was replaced, or its
// gateway is still refreshing. The checks and the removal share m.mu with
// entry, so a concurrent Lookup either keeps e alive or restores it afterwards.
func (m *Manager) evictIfIdle(e *Entry, cutoff time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries[e.ID] != e || !e.idleSince().Before(cutoff) {
		return false
	}
	if g := e.Client.Gateway(); g != nil && (g.State() != client.StateIdle || g.Pending() > 0) {
		return false
	}

	m.Persist(e)
	delete(m.entries, e.ID)
	metrics.ActiveSessions.Dec()
	return true
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := m.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Sweep()
		}
	}
}

// Len is the number of live entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
