// Package storage holds the durable key-value stores backing the session credential.
package storage

import (
	"errors"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot be stored as a single file name.
var ErrInvalidKey = errors.New("invalid storage key")

// Store is a string key-value store.
type Store interface {
	// Get returns the value and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// ValidateKey rejects keys that are empty, dot names or contain a path separator.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}
