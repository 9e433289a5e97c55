package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// memStore is a TokenStore with knobs for failure injection
type memStore struct {
	mu       sync.Mutex
	token    string
	failSet  bool
	sets     int
	clears   int
	setCalls []string
}

func (m *memStore) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *memStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.sets++
	m.setCalls = append(m.setCalls, token)
	m.token = token
	return nil
}

func (m *memStore) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.token = ""
	return nil
}

// blockingRefresh returns a RefreshFunc that waits for proceed before answering.
func blockingRefresh(calls *int32, proceed <-chan struct{}, token string, err error) RefreshFunc {
	return func(ctx context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		select {
		case <-proceed:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return token, err
	}
}

func waitRefreshing(t *testing.T, g *Gateway) {
	t.Helper()
	require.Eventually(t, func() bool { return g.State() == StateRefreshing }, 2*time.Second, time.Millisecond)
}

func waitPending(t *testing.T, g *Gateway, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return g.Pending() == n }, 2*time.Second, time.Millisecond)
}

func TestGatewaySingleFlight(t *testing.T) {
	const callers = 10
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	g := NewGateway(store, blockingRefresh(&calls, proceed, "new-token", nil), GatewayConfig{})

	var eg errgroup.Group
	tokens := make([]string, callers)
	for i := 0; i < callers; i++ {
		i := i
		eg.Go(func() error {
			token, release, err := g.Recover(context.Background(), "old")
			release()
			tokens[i] = token
			return err
		})
	}

	waitPending(t, g, callers-1)
	close(proceed)

	require.NoError(t, eg.Wait())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, tok := range tokens {
		require.Equal(t, "new-token", tok)
	}
	require.Equal(t, StateIdle, g.State())
	require.Equal(t, 1, store.sets)
}

func TestGatewayDrainsFIFO(t *testing.T) {
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	g := NewGateway(store, blockingRefresh(&calls, proceed, "new-token", nil), GatewayConfig{})

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	var eg errgroup.Group
	call := func(name string) {
		eg.Go(func() error {
			token, release, err := g.Recover(context.Background(), "old")
			if err != nil {
				return err
			}
			if token != "new-token" {
				return errors.New("unexpected token " + token)
			}
			record(name)
			release()
			return nil
		})
	}

	call("initiator")
	waitRefreshing(t, g)
	call("A")
	waitPending(t, g, 1)
	call("B")
	waitPending(t, g, 2)
	call("C")
	waitPending(t, g, 3)

	close(proceed)
	require.NoError(t, eg.Wait())
	require.Equal(t, []string{"A", "B", "C", "initiator"}, order)
}

func TestGatewayRefreshFailureRejectsAllAndTearsDown(t *testing.T) {
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	var teardowns int32
	g := NewGateway(store,
		blockingRefresh(&calls, proceed, "", errors.New("refresh cookie expired")),
		GatewayConfig{OnTeardown: func() { atomic.AddInt32(&teardowns, 1) }})

	errs := make([]error, 3)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := g.Recover(context.Background(), "old")
			release()
			errs[i] = err
		}()
	}

	waitPending(t, g, 2)
	close(proceed)
	wg.Wait()

	for _, err := range errs {
		var re *RefreshError
		require.ErrorAs(t, err, &re)
		require.ErrorIs(t, err, ErrSessionExpired)
		require.True(t, IsSessionExpired(err))
	}
	_, ok := store.Token()
	require.False(t, ok)
	require.Equal(t, 1, store.clears)
	require.Equal(t, int32(1), atomic.LoadInt32(&teardowns))
	require.Equal(t, StateIdle, g.State())
	require.Zero(t, g.Pending())
}

func TestGatewayRecoversFromPanickingRefresh(t *testing.T) {
	store := &memStore{token: "old"}
	var calls int32
	g := NewGateway(store, func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		return "second", nil
	}, GatewayConfig{})

	_, _, err := g.Recover(context.Background(), "old")
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Contains(t, err.Error(), "boom")
	require.Equal(t, StateIdle, g.State())

	// a later episode starts normally
	token, _, err := g.Recover(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "second", token)
}

func TestGatewayStoreFailureIsRefreshError(t *testing.T) {
	store := &memStore{token: "old", failSet: true}
	g := NewGateway(store, func(ctx context.Context) (string, error) {
		return "new-token", nil
	}, GatewayConfig{})

	_, _, err := g.Recover(context.Background(), "old")
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, 1, store.clears)
}

type panickingStore struct {
	*memStore
}

func (panickingStore) SetToken(string) error {
	panic("store exploded")
}

func TestGatewayPanickingStoreReleasesLock(t *testing.T) {
	store := panickingStore{&memStore{token: "old"}}
	g := NewGateway(store, func(ctx context.Context) (string, error) {
		return "new-token", nil
	}, GatewayConfig{})

	_, _, err := g.Recover(context.Background(), "old")
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Contains(t, err.Error(), "store exploded")
	require.Equal(t, StateIdle, g.State())
	require.NoError(t, g.admit(context.Background()))
}

func TestGatewayRefreshErrorNotDoubleWrapped(t *testing.T) {
	inner := &RefreshError{Err: errors.New("inner")}
	g := NewGateway(&memStore{token: "old"}, func(ctx context.Context) (string, error) {
		return "", inner
	}, GatewayConfig{})

	_, _, err := g.Recover(context.Background(), "old")
	require.Same(t, inner, err)
}

func TestGatewayCancelledWaiterLeavesQueue(t *testing.T) {
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	g := NewGateway(store, blockingRefresh(&calls, proceed, "new-token", nil), GatewayConfig{})

	initiatorDone := make(chan error, 1)
	go func() {
		_, _, err := g.Recover(context.Background(), "old")
		initiatorDone <- err
	}()
	waitRefreshing(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, release, err := g.Recover(ctx, "old")
		release()
		waiterDone <- err
	}()
	waitPending(t, g, 1)

	cancel()
	require.ErrorIs(t, <-waiterDone, context.Canceled)
	require.Zero(t, g.Pending())

	close(proceed)
	select {
	case err := <-initiatorDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("initiator blocked on a cancelled waiter")
	}
}

func TestGatewayInitiatorCancellationDoesNotAbortRefresh(t *testing.T) {
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	g := NewGateway(store, blockingRefresh(&calls, proceed, "new-token", nil), GatewayConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Recover(ctx, "old")
		done <- err
	}()
	waitRefreshing(t, g)

	cancel()
	close(proceed)
	require.NoError(t, <-done)
	token, _ := store.Token()
	require.Equal(t, "new-token", token)
}

func TestGatewayStaleCredentialSkipsRefresh(t *testing.T) {
	store := &memStore{token: "current"}
	var calls int32
	g := NewGateway(store, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "unused", nil
	}, GatewayConfig{})

	token, _, err := g.Recover(context.Background(), "stale")
	require.NoError(t, err)
	require.Equal(t, "current", token)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestGatewayAdmitWaitsForDrain(t *testing.T) {
	store := &memStore{token: "old"}
	proceed := make(chan struct{})
	var calls int32
	g := NewGateway(store, blockingRefresh(&calls, proceed, "new-token", nil), GatewayConfig{})
	require.NoError(t, g.admit(context.Background()))

	initiator := make(chan error, 1)
	go func() {
		_, _, err := g.Recover(context.Background(), "old")
		initiator <- err
	}()
	waitRefreshing(t, g)

	type released struct {
		token   string
		release func()
		err     error
	}
	queued := make([]chan released, 3)
	for i := range queued {
		ch := make(chan released, 1)
		queued[i] = ch
		go func() {
			token, release, err := g.Recover(context.Background(), "old")
			ch <- released{token, release, err}
		}()
		waitPending(t, g, i+1)
	}
	close(proceed)

	first := <-queued[0]
	require.NoError(t, first.err)
	token, _ := store.Token()
	require.Equal(t, "new-token", token)

	admitted := make(chan error, 1)
	go func() { admitted <- g.admit(context.Background()) }()

	// A request sent with the old credential is held behind the queue as well.
	stale := make(chan string, 1)
	go func() {
		token, _, _ := g.Recover(context.Background(), "old")
		stale <- token
	}()

	for i, ch := range queued {
		w := first
		if i > 0 {
			w = <-ch
		}
		require.NoError(t, w.err)
		require.Equal(t, "new-token", w.token)
		select {
		case <-admitted:
			t.Fatalf("new request admitted before queued request %d resubmitted", i+1)
		case <-stale:
			t.Fatalf("stale request resubmitted before queued request %d", i+1)
		case <-time.After(20 * time.Millisecond):
		}
		w.release()
	}

	require.NoError(t, <-admitted)
	require.Equal(t, "new-token", <-stale)
	require.NoError(t, <-initiator)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRefreshStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "refreshing", StateRefreshing.String())
	require.Equal(t, "RefreshState(7)", RefreshState(7).String())
}
