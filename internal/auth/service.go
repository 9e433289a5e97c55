// Package auth keeps the signed-in user next to the session credential and
// drives login, logout and password reset against the backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/session"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a session and there is none
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginRejected is returned when the backend answered but refused the login
	ErrLoginRejected = errors.New("login rejected")
)

// CredentialStore is the session credential as the auth service sees it.
type CredentialStore interface {
	client.TokenStore
	IsAuthenticated() bool
}

// Service is the authentication state of one session.
type Service struct {
	api   *api.API
	store CredentialStore
	log   *slog.Logger

	mu   sync.RWMutex
	user *models.UserProfile
}

func NewService(a *api.API, store CredentialStore, log *slog.Logger) *Service {
	return &Service{
		api:   a,
		store: store,
		log:   logger.WithComponent(log, "auth"),
	}
}

// Connect builds a backend client over store and the auth service on top of
// it, with the service's SessionExpired as the gateway teardown hook.
func Connect(cfg client.Config, store CredentialStore) (*Service, *api.API, *client.Client, error) {
	var svc *Service
	userHook := cfg.OnSessionExpired
	cfg.OnSessionExpired = func() {
		if svc != nil {
			svc.SessionExpired()
		}
		if userHook != nil {
			userHook()
		}
	}

	c, err := client.NewClient(cfg, store)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	a := api.New(c)
	svc = NewService(a, store, cfg.Logger)
	return svc, a, c, nil
}

// Login authenticates with a username or an email address.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.UserProfile, error) {
	req := models.LoginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Username = identifier
	}

	resp, err := s.api.Auth.Login(ctx, req)
	if err != nil {
		s.clearLocal()
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if !resp.LoginSuccess || resp.Token == "" {
		s.clearLocal()
		msg := resp.Message
		if msg == "" {
			msg = "no token issued"
		}
		return nil, fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}

	if err := s.store.SetToken(resp.Token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	user := resp.User
	s.setUser(&user)
	logger.WithUser(s.log, strconv.FormatInt(user.ID, 10)).Info("logged in",
		slog.String("username", user.Username),
		slog.String("token_prefix", logger.TokenPrefix(resp.Token)))
	return &user, nil
}

// Logout tells the backend, then clears the local session whatever it said.
func (s *Service) Logout(ctx context.Context) error {
	var serverErr error
	if s.store.IsAuthenticated() {
		if serverErr = s.api.Auth.Logout(ctx); serverErr != nil {
			s.log.Warn("server logout failed, clearing local session anyway",
				slog.String("error", serverErr.Error()))
		}
	}
	if err := s.clearLocal(); err != nil {
		return err
	}
	s.log.Info("logged out")
	return nil
}

// SessionExpired drops local state after the gateway tore the session down.
func (s *Service) SessionExpired() {
	s.setUser(nil)
	s.log.Warn("session expired")
}

// FetchProfile loads the signed-in user. A rejected profile request ends the
// session; a network failure leaves it in place.
func (s *Service) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	if !s.store.IsAuthenticated() {
		s.clearLocal()
		return nil, ErrNotAuthenticated
	}

	profile, err := s.api.Auth.Profile(ctx)
	if err != nil {
		var te *client.TransportError
		if !errors.As(err, &te) {
			s.clearLocal()
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	s.setUser(&profile)
	return &profile, nil
}

// Bootstrap restores the user at startup when a credential was persisted.
func (s *Service) Bootstrap(ctx context.Context) error {
	if !s.store.IsAuthenticated() {
		return nil
	}
	_, err := s.FetchProfile(ctx)
	return err
}

func (s *Service) Register(ctx context.Context, req models.EnrollRequest) (string, error) {
	resp, err := s.api.Auth.Register(ctx, req)
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return resp.Message, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	resp, err := s.api.Auth.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", fmt.Errorf("password reset request failed: %w", err)
	}
	return resp.Message, nil
}

func (s *Service) VerifyResetCode(ctx context.Context, code string) (string, error) {
	resp, err := s.api.Auth.VerifyResetCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("code verification failed: %w", err)
	}
	return resp.Message, nil
}

func (s *Service) SubmitNewPassword(ctx context.Context, password string) (string, error) {
	resp, err := s.api.Auth.SubmitNewPassword(ctx, password)
	if err != nil {
		return "", fmt.Errorf("password submission failed: %w", err)
	}
	return resp.Message, nil
}

// CurrentUser returns a copy of the cached profile, nil if none.
func (s *Service) CurrentUser() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Service) IsAuthenticated() bool {
	return s.store.IsAuthenticated()
}

// Claims decodes the current credential, if it is a JWT.
func (s *Service) Claims() (*session.Claims, error) {
	token, ok := s.store.Token()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return session.ParseClaims(token)
}

func (s *Service) setUser(u *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Service) clearLocal() error {
	s.setUser(nil)
	if err := s.store.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
