package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/session"
	"github.com/devilmonastery/clubhouse/internal/storage"
)

type fakeBackend struct {
	srv          *httptest.Server
	logoutCalls  int32
	profileCalls int32

	mu             sync.Mutex
	loginReply     string
	loginStatus    int
	profileStatus  int
	refreshStatus  int
	logoutStatus   int
	acceptedBearer string
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{
		loginReply:     `{"login_success":true,"message":"ok","token":"tok-1","user":{"id":9,"username":"ana","firstName":"Ana"}}`,
		acceptedBearer: "Bearer tok-1",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
		}
		_, _ = io.WriteString(w, f.loginReply)
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.profileCalls, 1)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.profileStatus != 0 {
			w.WriteHeader(f.profileStatus)
			return
		}
		if r.Header.Get("Authorization") != f.acceptedBearer {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":9,"username":"ana","firstName":"Ana","lastName":"Ruiz"}`)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.logoutCalls, 1)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.logoutStatus != 0 {
			w.WriteHeader(f.logoutStatus)
			return
		}
		_, _ = io.WriteString(w, `{"message":"bye"}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.refreshStatus != 0 {
			w.WriteHeader(f.refreshStatus)
			return
		}
		f.acceptedBearer = "Bearer tok-2"
		_, _ = io.WriteString(w, `{"token":"tok-2"}`)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newService(t *testing.T, f *fakeBackend, persisted string) (*Service, *session.Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	if persisted != "" {
		require.NoError(t, mem.Set(session.TokenKey, persisted))
	}
	store := session.NewStore(mem, nil)
	svc, _, _, err := Connect(client.Config{BaseURL: f.srv.URL}, store)
	require.NoError(t, err)
	return svc, store, mem
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	f := newFakeBackend(t)
	svc, _, mem := newService(t, f, "")

	user, err := svc.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	require.Equal(t, "ana", user.Username)
	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "ana", svc.CurrentUser().Username)

	persisted, ok, _ := mem.Get(session.TokenKey)
	require.True(t, ok)
	require.Equal(t, "tok-1", persisted)
}

func TestLoginRejected(t *testing.T) {
	f := newFakeBackend(t)
	f.set(func(f *fakeBackend) {
		f.loginReply = `{"login_success":false,"message":"account locked"}`
	})
	svc, _, _ := newService(t, f, "")

	_, err := svc.Login(context.Background(), "ana@example.com", "pw")
	require.ErrorIs(t, err, ErrLoginRejected)
	require.Contains(t, err.Error(), "account locked")
	require.False(t, svc.IsAuthenticated())
	require.Nil(t, svc.CurrentUser())
}

func TestLoginBadCredentialsDoesNotRefresh(t *testing.T) {
	f := newFakeBackend(t)
	f.set(func(f *fakeBackend) {
		f.loginStatus = http.StatusUnauthorized
		f.loginReply = `{"message":"invalid credentials"}`
		f.refreshStatus = http.StatusInternalServerError
	})
	svc, _, _ := newService(t, f, "")

	_, err := svc.Login(context.Background(), "ana", "wrong")
	require.True(t, client.IsUnauthorized(err))
	require.False(t, client.IsSessionExpired(err))
	require.Equal(t, "invalid credentials", client.Message(err))
}

func TestBootstrapFetchesProfile(t *testing.T) {
	f := newFakeBackend(t)
	svc, _, _ := newService(t, f, "tok-1")

	require.NoError(t, svc.Bootstrap(context.Background()))
	require.Equal(t, "Ana Ruiz", svc.CurrentUser().DisplayName())
}

func TestBootstrapWithoutSessionIsNoop(t *testing.T) {
	f := newFakeBackend(t)
	svc, _, _ := newService(t, f, "")

	require.NoError(t, svc.Bootstrap(context.Background()))
	require.Zero(t, atomic.LoadInt32(&f.profileCalls))
}

func TestBootstrapRefreshesExpiredToken(t *testing.T) {
	f := newFakeBackend(t)
	svc, store, _ := newService(t, f, "tok-stale")

	require.NoError(t, svc.Bootstrap(context.Background()))
	token, _ := store.Token()
	require.Equal(t, "tok-2", token)
	require.NotNil(t, svc.CurrentUser())
}

func TestRefreshFailureDropsUser(t *testing.T) {
	f := newFakeBackend(t)
	svc, store, _ := newService(t, f, "")
	_, err := svc.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)

	f.set(func(f *fakeBackend) {
		f.acceptedBearer = "Bearer something-else"
		f.refreshStatus = http.StatusUnauthorized
	})

	_, err = svc.FetchProfile(context.Background())
	require.True(t, client.IsSessionExpired(err))
	require.Nil(t, svc.CurrentUser())
	require.False(t, store.IsAuthenticated())
}

func TestFetchProfileKeepsSessionOnNetworkError(t *testing.T) {
	f := newFakeBackend(t)
	svc, store, _ := newService(t, f, "tok-1")
	f.srv.Close()

	_, err := svc.FetchProfile(context.Background())
	var te *client.TransportError
	require.True(t, errors.As(err, &te))
	require.True(t, store.IsAuthenticated())
}

func TestFetchProfileRejectedLogsOut(t *testing.T) {
	f := newFakeBackend(t)
	f.set(func(f *fakeBackend) { f.profileStatus = http.StatusForbidden })
	svc, store, _ := newService(t, f, "tok-1")

	_, err := svc.FetchProfile(context.Background())
	require.True(t, client.IsForbidden(err))
	require.False(t, store.IsAuthenticated())
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	f := newFakeBackend(t)
	f.set(func(f *fakeBackend) { f.logoutStatus = http.StatusInternalServerError })
	svc, store, _ := newService(t, f, "tok-1")

	require.NoError(t, svc.Logout(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&f.logoutCalls))
	require.False(t, store.IsAuthenticated())

	// second logout has no session and makes no call
	require.NoError(t, svc.Logout(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&f.logoutCalls))
}

func TestClaimsRequiresSession(t *testing.T) {
	f := newFakeBackend(t)
	svc, _, _ := newService(t, f, "")
	_, err := svc.Claims()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
