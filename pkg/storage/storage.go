package storage

import (
	"errors"
	"sync"
)

// Storage is a string key/value target.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when the key
	// is absent; err is reserved for backend failures.
	GetItem(key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
}

// Remover is implemented by backends that can delete keys.
type Remover interface {
	RemoveItem(key string) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage: closed")

// ErrInvalidKey is returned for keys a backend cannot represent.
var ErrInvalidKey = errors.New("storage: invalid key")

var (
	defaultMu      sync.RWMutex
	defaultStorage Storage = NewMemory()
)

// Default returns the process-wide storage used when a store enables
// persistence without naming a target.
func Default() Storage {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStorage
}

// SetDefault replaces the process-wide storage and returns the previous one.
func SetDefault(s Storage) Storage {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	old := defaultStorage
	defaultStorage = s
	return old
}
