package store

import (
	"github.com/vango-dev/sugar/pkg/storage"
)

// Persist configures persistence for a store. A nil *Persist or one with
// Enable false disables persistence entirely; the store then never touches
// storage.
type Persist[T any] struct {
	Enable bool

	// Storage is the target. Default: storage.Default().
	Storage storage.Storage

	// Key is the storage key. Default: the store name.
	Key string

	// Serializer converts state to text. Default: storage.JSON[T]().
	Serializer storage.Serializer[T]

	// Debug logs hydration failures and every save.
	Debug bool
}

// PersistDefault enables persistence with every default: the default
// storage, the store name as key, JSON, and no debug logging.
func PersistDefault[T any]() *Persist[T] {
	return &Persist[T]{Enable: true}
}

// persistence is a Persist with every default filled in.
type persistence[T any] struct {
	storage    storage.Storage
	key        string
	serializer storage.Serializer[T]
	debug      bool
}

// normalizePersist fills in defaults, or returns nil when persistence is
// disabled.
func normalizePersist[T any](name string, opt *Persist[T]) *persistence[T] {
	if opt == nil || !opt.Enable {
		return nil
	}
	p := &persistence[T]{
		storage:    opt.Storage,
		key:        opt.Key,
		serializer: opt.Serializer,
		debug:      opt.Debug,
	}
	if p.storage == nil {
		p.storage = storage.Default()
	}
	if p.key == "" {
		p.key = name
	}
	if p.serializer == nil {
		p.serializer = storage.JSON[T]()
	}
	return p
}
