package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/clubhouse/internal/storage"
)

// failingStorage wraps a store and fails writes on demand
type failingStorage struct {
	*storage.Memory
	failSet    bool
	failRemove bool
	failGet    bool
}

func (f *failingStorage) Get(key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("disk unavailable")
	}
	return f.Memory.Get(key)
}

func (f *failingStorage) Set(key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func (f *failingStorage) Remove(key string) error {
	if f.failRemove {
		return errors.New("read-only filesystem")
	}
	return f.Memory.Remove(key)
}

func TestRestoreValidToken(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(TokenKey, "header.payload.sig"))

	s := NewStore(mem, nil)
	token, ok := s.Token()
	require.True(t, ok)
	require.Equal(t, "header.payload.sig", token)
	require.True(t, s.IsAuthenticated())
}

func TestRestoreDiscardsObjectObject(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(TokenKey, "[object Object]"))

	s := NewStore(mem, nil)
	require.False(t, s.IsAuthenticated())

	_, ok, err := mem.Get(TokenKey)
	require.NoError(t, err)
	require.False(t, ok, "implausible token should be removed from storage")
}

func TestRestoreUnreadableStorage(t *testing.T) {
	s := NewStore(&failingStorage{Memory: storage.NewMemory(), failGet: true}, nil)
	require.False(t, s.IsAuthenticated())
}

func TestSetTokenWritesMemoryAndStorage(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem, nil)

	require.NoError(t, s.SetToken("new-token"))

	token, ok := s.Token()
	require.True(t, ok)
	require.Equal(t, "new-token", token)

	persisted, ok, err := mem.Get(TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new-token", persisted)
}

func TestSetTokenStorageFailureKeepsOld(t *testing.T) {
	fs := &failingStorage{Memory: storage.NewMemory()}
	s := NewStore(fs, nil)
	require.NoError(t, s.SetToken("old-token"))

	fs.failSet = true
	require.Error(t, s.SetToken("new-token"))

	token, _ := s.Token()
	require.Equal(t, "old-token", token)
}

func TestSetTokenRejectsImplausible(t *testing.T) {
	s := NewStore(storage.NewMemory(), nil)
	require.ErrorIs(t, s.SetToken(""), ErrImplausibleToken)
	require.ErrorIs(t, s.SetToken("[object Object]"), ErrImplausibleToken)
	require.False(t, s.IsAuthenticated())
}

func TestClearToken(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem, nil)
	require.NoError(t, s.SetToken("tok"))

	require.NoError(t, s.ClearToken())
	require.False(t, s.IsAuthenticated())
	_, ok, _ := mem.Get(TokenKey)
	require.False(t, ok)
}

func TestClearTokenStorageFailureStillClearsMemory(t *testing.T) {
	fs := &failingStorage{Memory: storage.NewMemory()}
	s := NewStore(fs, nil)
	require.NoError(t, s.SetToken("tok"))

	fs.failRemove = true
	require.Error(t, s.ClearToken())
	require.False(t, s.IsAuthenticated())
}

func TestValidToken(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"eyJhbGciOiJIUzI1NiJ9.e30.sig", true},
		{"opaque-token", true},
		{"", false},
		{"[object Object]", false},
		{"undefined", false},
		{"null", false},
		{`{"token":"x"}`, false},
		{`["x"]`, false},
		{"has space", false},
		{"trailing\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidToken(tt.in); got != tt.want {
				t.Errorf("ValidToken(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
