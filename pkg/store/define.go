package store

import (
	"log/slog"

	"github.com/vango-dev/sugar/internal/telemetry"
	"github.com/vango-dev/sugar/pkg/provider"
	"github.com/vango-dev/sugar/pkg/vango"
)

// Setup describes a store.
type Setup[T, G, A any] struct {
	// State is the initial state. Ignored when StateFunc is set.
	State T

	// StateFunc builds the initial state. It is called exactly once, and
	// its result is also the snapshot Reset restores.
	StateFunc func() T

	// Getters binds derived reads to the store.
	Getters func(s *Store[T]) G

	// Actions binds named mutations to the store.
	Actions func(s *Store[T]) A

	// Persist enables persistence. nil disables it.
	Persist *Persist[T]

	// Logger receives persistence logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics receives store counters. Default: telemetry.Default().
	Metrics *telemetry.Metrics
}

// Handle is what Define returns: the store plus its bound getters and
// actions. Pass it to the code that needs the store.
type Handle[T, G, A any] struct {
	*Store[T]
	Getters G
	Actions A

	ctx *vango.Context[*Handle[T, G, A]]
}

// Define creates a store named name. With persistence enabled, the stored
// state is loaded and the resulting state written once before Define
// returns.
//
// When an Owner is current, the store's subscribers are released when that
// Owner is disposed.
func Define[T, G, A any](name string, setup Setup[T, G, A]) *Handle[T, G, A] {
	initial := setup.State
	if setup.StateFunc != nil {
		initial = setup.StateFunc()
	}

	s := newStore(name, initial, setup.Logger, setup.Metrics)
	s.persist = normalizePersist(name, setup.Persist)

	h := &Handle[T, G, A]{Store: s}
	h.ctx = vango.CreateContext(h)
	if setup.Getters != nil {
		h.Getters = setup.Getters(s)
	}
	if setup.Actions != nil {
		h.Actions = setup.Actions(s)
	}

	if s.persist != nil {
		s.hydrate()
		s.save()
	}

	if owner := vango.CurrentOwner(); owner != nil {
		owner.OnCleanup(s.release)
	}
	return h
}

// Provider provides h to code run inside it, for use with Use.
func (h *Handle[T, G, A]) Provider() provider.Provider {
	return provider.Value(h.ctx, h)
}

// ProvideAs provides other in place of h. Code inside it that calls
// h.Use receives other, which lets tests swap in a differently seeded
// store.
func (h *Handle[T, G, A]) ProvideAs(other *Handle[T, G, A]) provider.Provider {
	return provider.Value(h.ctx, other)
}

// Use returns the nearest provided handle, or h itself.
func (h *Handle[T, G, A]) Use() *Handle[T, G, A] {
	return h.ctx.Use()
}
