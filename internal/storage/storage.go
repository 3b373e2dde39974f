// Package storage provides the on-device key-value store used for
// client-side persisted state.
package storage

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KV is a small string-keyed byte store.
type KV interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases underlying resources.
	Close() error
}

// Open returns the KV implementation for driver ("file" or "sqlite").
// A nil logger discards store warnings.
func Open(driver, path string, logger *zap.Logger) (KV, error) {
	switch driver {
	case "file", "":
		store, err := NewFileStore(path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
