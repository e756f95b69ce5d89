package vango

import (
	"sync"
	"sync/atomic"
)

// Memo caches a derived value. It recomputes lazily on the first read after
// one of its dependencies changed, and can itself be depended on.
type Memo[T any] struct {
	base signalBase

	compute func() T

	mu    sync.RWMutex
	value T
	valid atomic.Bool

	sourcesMu sync.Mutex
	sources   []*signalBase

	computing atomic.Bool
}

// NewMemo creates a memo. compute does not run until the first Get.
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{
		base:    signalBase{id: nextID()},
		compute: compute,
	}
}

// Get returns the cached value, recomputing if stale, and tracks the memo.
func (m *Memo[T]) Get() T {
	m.base.track()
	return m.Peek()
}

// Peek returns the value without tracking. It still recomputes if stale.
func (m *Memo[T]) Peek() T {
	if !m.valid.Load() {
		m.recompute()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// MarkDirty implements Listener.
func (m *Memo[T]) MarkDirty() {
	if m.valid.CompareAndSwap(true, false) {
		m.base.notify()
	}
}

// ID implements Listener.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

func (m *Memo[T]) addSource(source *signalBase) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()
	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

func (m *Memo[T]) recompute() {
	// A memo that reads itself keeps its last value.
	if m.computing.Swap(true) {
		return
	}
	defer m.computing.Store(false)

	m.sourcesMu.Lock()
	for _, s := range m.sources {
		s.unsubscribe(m)
	}
	m.sources = m.sources[:0]
	m.sourcesMu.Unlock()

	old := setCurrentListener(m)
	v := m.compute()
	setCurrentListener(old)

	m.mu.Lock()
	m.value = v
	m.mu.Unlock()
	m.valid.Store(true)
}
