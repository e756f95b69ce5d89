package vango

import (
	"reflect"
	"sync"
)

// signalBase holds the subscriber list shared by Signal and Memo.
type signalBase struct {
	id uint64

	mu   sync.RWMutex
	subs []Listener
}

func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == id {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == id {
			last := len(s.subs) - 1
			s.subs[i] = s.subs[last]
			s.subs = s.subs[:last]
			return
		}
	}
}

// track subscribes the current listener, if any, to s.
func (s *signalBase) track() {
	l := getCurrentListener()
	if l == nil {
		return
	}
	s.subscribe(l)
	if t, ok := l.(sourceTracker); ok {
		t.addSource(s)
	}
}

// notify marks every subscriber dirty, or queues them inside a batch.
// The list is copied first so listeners may resubscribe while running.
func (s *signalBase) notify() {
	s.mu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	if st := lookupState(); st != nil && st.batchDepth > 0 {
		st.pending = append(st.pending, subs...)
		return
	}
	for _, l := range subs {
		l.MarkDirty()
	}
}

// Signal is a reactive value container. Get subscribes the running
// effect or memo; Set notifies subscribers when the value changed.
type Signal[T any] struct {
	base signalBase

	mu    sync.RWMutex
	value T

	equal func(a, b T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  signalBase{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and tracks it as a dependency.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	v := s.value
	s.mu.RUnlock()

	s.base.track()
	return v
}

// Peek returns the current value without tracking.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and reports whether it differed from the previous one.
func (s *Signal[T]) Set(value T) bool {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
	return changed
}

// Update replaces the value with fn(current) under the signal's lock.
func (s *Signal[T]) Update(fn func(T) T) bool {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.equals(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
	return changed
}

// WithEquals replaces the change detection used by Set and Update.
func (s *Signal[T]) WithEquals(fn func(a, b T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's identifier.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals compares scalars with == and everything else with
// reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
