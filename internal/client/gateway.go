package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/metrics"
)

// RefreshState is the gateway's refresh state machine.
type RefreshState int

const (
	StateIdle RefreshState = iota
	StateRefreshing
)

func (s RefreshState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("RefreshState(%d)", int(s))
	}
}

// RefreshFunc obtains a new credential from the backend.
type RefreshFunc func(ctx context.Context) (string, error)

const (
	defaultRefreshTimeout = 15 * time.Second

	// drainStepTimeout bounds how long the drain waits for one released caller
	// to hand its resubmission to the dispatcher.
	drainStepTimeout = 5 * time.Second
)

// GatewayConfig tunes a Gateway. The zero value is usable.
type GatewayConfig struct {
	RefreshTimeout time.Duration
	// OnTeardown runs after the credential was cleared by a failed refresh.
	OnTeardown func()
	Logger     *slog.Logger
}

type outcome struct {
	token      string
	err        error
	dispatched func()
}

func (o outcome) release() {
	if o.dispatched != nil {
		o.dispatched()
	}
}

// waiter is a caller parked behind an in-flight refresh. ch is buffered and
// receives exactly one outcome.
type waiter struct {
	ch chan outcome
}

func noop() {}

// Gateway coordinates credential renewal for every request sharing one TokenStore:
// at most one refresh is in flight, callers that hit 401 meanwhile are queued
// and released in arrival order once it settles.
type Gateway struct {
	store          TokenStore
	refresh        RefreshFunc
	refreshTimeout time.Duration
	onTeardown     func()
	log            *slog.Logger

	mu      sync.Mutex
	state   RefreshState
	pending []*waiter
	// draining is open while a successful episode is releasing its queue
	draining chan struct{}
}

func NewGateway(store TokenStore, refresh RefreshFunc, cfg GatewayConfig) *Gateway {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	return &Gateway{
		store:          store,
		refresh:        refresh,
		refreshTimeout: cfg.RefreshTimeout,
		onTeardown:     cfg.OnTeardown,
		log:            logger.WithComponent(cfg.Logger, "gateway"),
	}
}

func (g *Gateway) State() RefreshState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending returns the number of queued callers.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// admit holds back a first-attempt request while queued callers are being
// resubmitted, so they go out before anything new.
func (g *Gateway) admit(ctx context.Context) error {
	g.mu.Lock()
	draining := g.draining
	g.mu.Unlock()

	if draining == nil {
		return nil
	}
	select {
	case <-draining:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover is called by a request that got 401 on its first attempt. sentWith is
// the credential it was dispatched with. It returns the credential to resubmit
// with and a release func the caller must invoke once its resubmission has been
// dispatched (the dispatcher does this). On failure the error is a *RefreshError
// or the caller's ctx error.
func (g *Gateway) Recover(ctx context.Context, sentWith string) (string, func(), error) {
	g.mu.Lock()
	if g.state == StateRefreshing {
		w := &waiter{ch: make(chan outcome, 1)}
		g.pending = append(g.pending, w)
		position := len(g.pending)
		g.mu.Unlock()

		metrics.QueuedRequests.Inc()
		g.log.Debug("refresh in flight, queueing request", slog.Int("position", position))
		return g.wait(ctx, w)
	}

	// A rejection of a credential that has since been replaced needs no new
	// refresh; resubmit with the current one.
	if current, ok := g.store.Token(); ok && sentWith != "" && current != sentWith {
		draining := g.draining
		g.mu.Unlock()
		g.log.Debug("credential already renewed, resubmitting",
			slog.String("token_prefix", logger.TokenPrefix(current)))
		// Still behind the queue of the episode that renewed it.
		if draining != nil {
			select {
			case <-draining:
			case <-ctx.Done():
				return "", noop, ctx.Err()
			}
		}
		return current, noop, nil
	}

	g.state = StateRefreshing
	g.mu.Unlock()

	token, err := g.initiate(ctx)
	return token, noop, err
}

func (g *Gateway) wait(ctx context.Context, w *waiter) (string, func(), error) {
	select {
	case out := <-w.ch:
		if out.err != nil {
			return "", noop, out.err
		}
		return out.token, out.release, nil
	case <-ctx.Done():
		if g.dequeue(w) {
			return "", noop, ctx.Err()
		}
		// The drain already owns this waiter; take the outcome and let it move on.
		out := <-w.ch
		out.release()
		return "", noop, ctx.Err()
	}
}

func (g *Gateway) dequeue(w *waiter) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.pending {
		if p == w {
			g.pending = append(g.pending[:i], g.pending[i+1:]...)
			return true
		}
	}
	return false
}

// initiate runs one refresh episode and settles every queued caller with its result.
func (g *Gateway) initiate(ctx context.Context) (token string, err error) {
	start := time.Now()
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("token refresh panicked", slog.Any("panic", r))
			token, err = "", &RefreshError{Err: fmt.Errorf("refresh panicked: %v", r)}
			panicked = true
		}
		token, err = g.settle(token, err)

		label := "failure"
		switch {
		case panicked:
			label = "panic"
		case err == nil:
			label = "success"
		}
		metrics.RecordRefresh(label, time.Since(start))
	}()

	return g.renew(ctx)
}

func (g *Gateway) renew(ctx context.Context) (string, error) {
	// One caller going away must not abort a refresh the others depend on.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.refreshTimeout)
	defer cancel()

	g.log.Info("access token rejected, refreshing")

	token, err := g.refresh(ctx)
	if err != nil {
		g.log.Error("token refresh failed", slog.String("error", err.Error()))
		var re *RefreshError
		if errors.As(err, &re) {
			return "", err
		}
		return "", &RefreshError{Err: err}
	}
	return token, nil
}

// settle publishes a refreshed credential, returns the state machine to idle
// and releases the queue in FIFO order. Publishing and opening the drain
// barrier happen under one lock, so no request admitted after the new
// credential is visible can overtake the queue.
func (g *Gateway) settle(token string, err error) (string, error) {
	g.mu.Lock()
	if err == nil {
		if serr := g.publish(token); serr != nil {
			g.log.Error("failed to store refreshed token", slog.String("error", serr.Error()))
			token, err = "", &RefreshError{Err: fmt.Errorf("failed to store refreshed token: %w", serr)}
		}
	}
	queue := g.pending
	g.pending = nil
	g.state = StateIdle
	var draining chan struct{}
	if err == nil && len(queue) > 0 {
		draining = make(chan struct{})
		g.draining = draining
	}
	g.mu.Unlock()

	if err != nil {
		g.teardown()
		for _, w := range queue {
			w.ch <- outcome{err: err}
		}
		return token, err
	}

	g.log.Info("successfully refreshed token", slog.String("token_prefix", logger.TokenPrefix(token)))
	if len(queue) > 0 {
		g.log.Debug("resubmitting queued requests", slog.Int("count", len(queue)))
	}
	for i, w := range queue {
		dispatched := make(chan struct{})
		var once sync.Once
		w.ch <- outcome{token: token, dispatched: func() { once.Do(func() { close(dispatched) }) }}

		timer := time.NewTimer(drainStepTimeout)
		select {
		case <-dispatched:
		case <-timer.C:
			g.log.Warn("queued request did not resubmit in time", slog.Int("position", i+1))
		}
		timer.Stop()
	}

	if draining != nil {
		g.mu.Lock()
		if g.draining == draining {
			g.draining = nil
		}
		g.mu.Unlock()
		close(draining)
	}
	return token, nil
}

// publish stores a refreshed credential. It runs under g.mu, so a panicking
// store is turned into an error rather than leaving the gateway locked.
func (g *Gateway) publish(token string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("token store panicked: %v", r)
		}
	}()
	return g.store.SetToken(token)
}

func (g *Gateway) teardown() {
	g.log.Warn("session expired, clearing credentials")
	if err := g.store.ClearToken(); err != nil {
		g.log.Error("failed to clear credentials", slog.String("error", err.Error()))
	}
	metrics.SessionTeardowns.Inc()
	if g.onTeardown != nil {
		g.onTeardown()
	}
}
