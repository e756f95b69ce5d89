package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/sugar/internal/telemetry"
	"github.com/vango-dev/sugar/pkg/vango"
)

// ErrInvalidPatch is returned by Patch when the partial does not encode to
// a JSON object.
var ErrInvalidPatch = errors.New("store: patch must be an object")

// Store is a named, mutable state container.
//
// All writes go through a single commit path: the new value replaces the
// old one, and if it differs, the state is saved (when persistence is
// enabled) and subscribers are called with the new and previous values.
// Writes from several goroutines are serialized. Functions passed to Update
// run while that lock is held and must not write to the same store.
type Store[T any] struct {
	name    string
	state   *vango.Signal[T]
	initial T

	writeMu sync.Mutex
	saveMu  sync.Mutex

	subsMu  sync.Mutex
	subs    []subscriber[T]
	nextSub uint64

	persist *persistence[T]
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

type subscriber[T any] struct {
	id uint64
	fn func(state, prev T)
}

func newStore[T any](name string, initial T, logger *slog.Logger, metrics *telemetry.Metrics) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.Default()
	}
	return &Store[T]{
		name:    name,
		state:   vango.NewSignal(deepCopy(initial)),
		initial: deepCopy(initial),
		logger:  logger.With("store", name),
		metrics: metrics,
	}
}

// Name returns the store name.
func (s *Store[T]) Name() string { return s.name }

// State returns a copy of the current state and tracks the store in the
// running effect or memo. Editing the copy does not change the store.
func (s *Store[T]) State() T { return deepCopy(s.state.Get()) }

// Peek returns a copy of the current state without tracking.
func (s *Store[T]) Peek() T { return deepCopy(s.state.Peek()) }

// Initial returns a copy of the snapshot Reset restores.
func (s *Store[T]) Initial() T { return deepCopy(s.initial) }

// Set replaces the state with a copy of v.
func (s *Store[T]) Set(v T) {
	v = deepCopy(v)
	_ = s.apply(func(T) (T, error) { return v, nil })
}

// Update calls fn with a deep copy of the state and commits the result.
//
//	s.Update(func(c *Counter) { c.Count++ })
func (s *Store[T]) Update(fn func(draft *T)) {
	_ = s.apply(func(cur T) (T, error) {
		draft := deepCopy(cur)
		fn(&draft)
		return draft, nil
	})
}

// Patch merges partial into the state. partial must encode to a JSON
// object. It is merged into the JSON form of the state key by key: objects
// on both sides merge recursively, any other value replaces what was there,
// and keys absent from partial keep their values. This holds for nested
// structs, typed maps and map[string]any values alike. Struct partials
// encode every field, so prefer maps or structs with omitempty fields.
//
//	s.Patch(map[string]any{"label": "taps"})
func (s *Store[T]) Patch(partial any) error {
	data, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("store %s: encode patch: %w", s.name, err)
	}
	var fields map[string]any
	if err := decodeJSON(data, &fields); err != nil || fields == nil {
		return fmt.Errorf("store %s: %w", s.name, ErrInvalidPatch)
	}
	return s.apply(func(cur T) (T, error) {
		merged, err := mergeState(cur, fields)
		if err != nil {
			return cur, fmt.Errorf("store %s: apply patch: %w", s.name, err)
		}
		next := deepCopy(cur)
		if err := json.Unmarshal(merged, &next); err != nil {
			return cur, fmt.Errorf("store %s: apply patch: %w", s.name, err)
		}
		return next, nil
	})
}

// mergeState returns the JSON encoding of cur with fields merged in.
func mergeState[T any](cur T, fields map[string]any) ([]byte, error) {
	data, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	var view any
	if err := decodeJSON(data, &view); err != nil {
		return nil, err
	}
	return json.Marshal(mergeJSON(view, fields))
}

// mergeJSON merges patch into base. Objects merge key by key; anything
// else in patch replaces base.
func mergeJSON(base, patch any) any {
	p, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	b, ok := base.(map[string]any)
	if !ok {
		return p
	}
	out := make(map[string]any, len(b)+len(p))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range p {
		out[k] = mergeJSON(b[k], v)
	}
	return out
}

// decodeJSON decodes data into v, keeping numbers as json.Number so they
// round-trip without losing precision.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Reset restores the snapshot captured when the store was defined. A
// hydrated value is not part of that snapshot.
func (s *Store[T]) Reset() {
	_ = s.apply(func(T) (T, error) { return deepCopy(s.initial), nil })
}

// Subscribe registers fn to run after every committed change, with the new
// and previous state. It does not run for the initial state or for
// hydration. The returned function removes the subscription.
func (s *Store[T]) Subscribe(fn func(state, prev T)) (unsubscribe func()) {
	s.subsMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

// SubscribeAny is Subscribe for callers that do not know T.
func (s *Store[T]) SubscribeAny(fn func(state, prev any)) (unsubscribe func()) {
	return s.Subscribe(func(state, prev T) { fn(state, prev) })
}

// MarshalJSON encodes the current state.
func (s *Store[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.state.Peek())
}

func (s *Store[T]) unsubscribe(id uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// release drops every subscriber.
func (s *Store[T]) release() {
	s.subsMu.Lock()
	s.subs = nil
	s.subsMu.Unlock()
}

// apply is the single commit path. Signal notifications are batched so
// effects reading the store run after the write lock is released.
func (s *Store[T]) apply(mutate func(cur T) (T, error)) error {
	var (
		prev, next T
		changed    bool
		err        error
	)
	vango.Batch(func() {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		prev = s.state.Peek()
		next, err = mutate(prev)
		if err != nil {
			return
		}
		changed = s.state.Set(next)
	})
	if err != nil || !changed {
		return err
	}

	s.metrics.StoreCommits.WithLabelValues(s.name).Inc()
	s.save()
	s.notify(deepCopy(next), prev)
	return nil
}

func (s *Store[T]) notify(state, prev T) {
	s.subsMu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(state, prev)
	}
}
