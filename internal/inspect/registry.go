package inspect

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/vango-dev/sugar/internal/errors"
)

// Target is a store the inspector can read, patch, reset and watch.
// *store.Store[T] satisfies it for every T.
type Target interface {
	Name() string
	json.Marshaler
	Patch(partial any) error
	Reset()
	SubscribeAny(fn func(state, prev any)) (unsubscribe func())
}

// Registry holds the targets served by a Server.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register adds t. Names are unique.
func (r *Registry) Register(t Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[t.Name()]; ok {
		return errors.New("S301").
			WithSubject(t.Name()).
			WithDetail("a store with this name is already registered")
	}
	r.targets[t.Name()] = t
	return nil
}

// Unregister removes the target named name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.targets, name)
	r.mu.Unlock()
}

// Get returns the target named name.
func (r *Registry) Get(name string) (Target, error) {
	r.mu.RLock()
	t, ok := r.targets[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New("S401").WithSubject(name)
	}
	return t, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
