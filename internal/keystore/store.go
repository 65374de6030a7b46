// Package keystore manages named cipher configurations. Configurations are
// kept in a key-value store with their secrets sealed under a passphrase.
package keystore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Keys lists the stored keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// OpenStore opens the store for backend at path. The memory backend ignores
// path.
func OpenStore(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendFile:
		return OpenFileStore(path)
	case BackendSQLite:
		return OpenSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown keystore backend %q", backend)
	}
}
