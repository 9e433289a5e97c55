package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/storage"
	"github.com/devilmonastery/clubhouse/web/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	backend := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(backend.Close)
	return session.NewManager(session.Options{
		Secret:  []byte("0123456789abcdef0123456789abcdef"),
		Storage: storage.NewMemory(),
		Client:  client.Config{BaseURL: backend.URL},
		Logger:  quietLogger(),
	})
}

// withSession returns the cookie of a freshly started session.
func withSession(t *testing.T, mgr *session.Manager) (*session.Entry, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	e, err := mgr.Start(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return e, cookies[0]
}

func TestRequireAuthWithoutCookie(t *testing.T) {
	mw := NewAuthMiddleware(newManager(t), quietLogger())
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?next=%2Fclubs", rec.Header().Get("Location"))
}

func TestRequireAuthUnauthenticatedSession(t *testing.T) {
	mgr := newManager(t)
	_, cookie := withSession(t, mgr)
	mw := NewAuthMiddleware(mgr, quietLogger())
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?next=%2Factivities", rec.Header().Get("Location"))
}

func TestRequireAuthPassesEntry(t *testing.T) {
	mgr := newManager(t)
	e, cookie := withSession(t, mgr)
	require.NoError(t, e.Client.Store().SetToken("tok-1"))

	mw := NewAuthMiddleware(mgr, quietLogger())
	var got *session.Entry
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Same(t, e, got)
}

func TestFromContextEmpty(t *testing.T) {
	_, ok := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}

func TestLogRequestSetsRequestIDAndRoute(t *testing.T) {
	router := mux.NewRouter()
	router.Use(LogRequest(quietLogger()))
	var route string
	router.HandleFunc("/clubs/{id}", func(w http.ResponseWriter, r *http.Request) {
		route = routeTemplate(r)
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/7", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "/clubs/{id}", route)
}

func TestLogRequestKeepsIncomingRequestID(t *testing.T) {
	router := mux.NewRouter()
	router.Use(LogRequest(quietLogger()))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", clientIP(req))
}

func TestRouteTemplateUnmatched(t *testing.T) {
	require.Equal(t, "unmatched", routeTemplate(httptest.NewRequest(http.MethodGet, "/nowhere", nil)))
}
