package vango

import (
	"maps"
	"reflect"
)

// MapSignal is a Signal over a map whose writes copy the map, so values
// handed out by Get are never mutated afterwards.
type MapSignal[K comparable, V any] struct {
	*Signal[map[K]V]
}

// NewMapSignal creates a MapSignal. A nil initial map becomes empty.
func NewMapSignal[K comparable, V any](initial map[K]V) *MapSignal[K, V] {
	if initial == nil {
		initial = make(map[K]V)
	}
	sig := NewSignal(initial).WithEquals(sameMap[K, V])
	return &MapSignal[K, V]{sig}
}

// sameMap compares map identity. Writes always install a fresh map, so
// identity is enough to detect a change.
func sameMap[K comparable, V any](a, b map[K]V) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// SetKey stores value under key.
func (s *MapSignal[K, V]) SetKey(key K, value V) {
	s.Update(func(m map[K]V) map[K]V {
		next := maps.Clone(m)
		if next == nil {
			next = make(map[K]V, 1)
		}
		next[key] = value
		return next
	})
}

// SetIfAbsent stores value under key unless key is present. It reports
// whether the value was stored.
func (s *MapSignal[K, V]) SetIfAbsent(key K, value V) bool {
	stored := false
	s.Update(func(m map[K]V) map[K]V {
		if _, ok := m[key]; ok {
			return m
		}
		stored = true
		next := maps.Clone(m)
		if next == nil {
			next = make(map[K]V, 1)
		}
		next[key] = value
		return next
	})
	return stored
}

// RemoveKey deletes key.
func (s *MapSignal[K, V]) RemoveKey(key K) {
	s.Update(func(m map[K]V) map[K]V {
		if _, ok := m[key]; !ok {
			return m
		}
		next := maps.Clone(m)
		delete(next, key)
		return next
	})
}

// GetKey returns the value for key and tracks the map.
func (s *MapSignal[K, V]) GetKey(key K) (V, bool) {
	v, ok := s.Get()[key]
	return v, ok
}

// HasKey reports whether key is present and tracks the map.
func (s *MapSignal[K, V]) HasKey(key K) bool {
	_, ok := s.GetKey(key)
	return ok
}

// Len returns the number of entries and tracks the map.
func (s *MapSignal[K, V]) Len() int {
	return len(s.Get())
}

// Clear removes every entry.
func (s *MapSignal[K, V]) Clear() {
	s.Set(make(map[K]V))
}
