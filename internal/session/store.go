// Package session owns the process-wide bearer credential: the in-memory copy read
// on every request and the durable copy restored at startup.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
)

// TokenKey is the storage key of the persisted credential.
const TokenKey = "authToken"

// ErrImplausibleToken is returned when a value cannot be a bearer token.
var ErrImplausibleToken = errors.New("implausible token")

// Storage is the durable key-value store the credential is persisted to.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Store holds the credential and the authenticated flag.
// Memory and storage are written under one lock, so readers never observe one without the other.
type Store struct {
	storage Storage
	log     *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewStore restores a persisted credential from storage. A missing, unreadable
// or implausible value leaves the session unauthenticated; implausible values
// are removed from storage.
func NewStore(storage Storage, log *slog.Logger) *Store {
	s := &Store{
		storage: storage,
		log:     logger.WithComponent(log, "session"),
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	value, ok, err := s.storage.Get(TokenKey)
	if err != nil {
		s.log.Warn("failed to read persisted token, starting unauthenticated", slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}
	if !ValidToken(value) {
		s.log.Warn("discarding implausible persisted token", slog.Int("length", len(value)))
		if err := s.storage.Remove(TokenKey); err != nil {
			s.log.Warn("failed to remove implausible token", slog.String("error", err.Error()))
		}
		return
	}
	s.token = value
	s.log.Debug("restored session", slog.String("token_prefix", logger.TokenPrefix(value)))
}

// Token returns the current credential and whether one exists.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// SetToken persists and publishes a new credential. If storage fails the previous
// credential stays in effect.
func (s *Store) SetToken(token string) error {
	if !ValidToken(token) {
		return ErrImplausibleToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = token
	return nil
}

// ClearToken drops the credential from memory and storage. Memory is always
// cleared; a storage failure is returned after the fact.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := s.storage.Remove(TokenKey); err != nil {
		return fmt.Errorf("failed to remove persisted token: %w", err)
	}
	return nil
}

// ValidToken reports whether v could be a bearer token. It rejects empty
// values, serialized objects such as "[object Object]" or JSON, and values
// containing whitespace.
func ValidToken(v string) bool {
	if v == "" || v == "[object Object]" || v == "undefined" || v == "null" {
		return false
	}
	if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
		return false
	}
	return !strings.ContainsAny(v, " \t\r\n")
}
