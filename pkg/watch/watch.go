// Package watch runs a callback when a reactive value changes.
//
//	count := signal.New(0)
//	w := watch.New(count.Get, func(v, prev int) {
//	    log.Printf("count %d -> %d", prev, v)
//	}, watch.Defer[int]())
//	defer w.Stop()
//
// deps is tracked; the callback is not, so signals it reads do not
// re-trigger the watcher.
package watch

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/sugar/pkg/vango"
)

// Option configures a Watcher.
type Option[T any] func(*config[T])

type config[T any] struct {
	deferred bool
	filter   func(v T, times int) bool
	callWith func(run func())
}

// Defer skips the callback for the value deps returns on creation.
func Defer[T any]() Option[T] {
	return func(c *config[T]) { c.deferred = true }
}

// Filter calls fn before each callback with the new value and the number
// of callbacks made so far. The callback is skipped when fn returns false.
// A filtered value still becomes prev for the next callback.
func Filter[T any](fn func(v T, times int) bool) Option[T] {
	return func(c *config[T]) { c.filter = fn }
}

// CallWith hands each callback to fn instead of running it directly, for
// debouncing or moving it to another goroutine. fn may call run later or
// not at all.
func CallWith[T any](fn func(run func())) Option[T] {
	return func(c *config[T]) { c.callWith = fn }
}

// Watcher is a running watch.
type Watcher[T any] struct {
	config   config[T]
	fn       func(input, prev T)
	effect   *vango.Effect
	watching atomic.Bool
	times    atomic.Int64

	mu      sync.Mutex
	prev    T
	skipped bool
}

// New starts watching deps. Unless Defer is given, fn runs immediately
// with the current value and a zero prev.
//
// Under an Owner, later runs happen on the Owner's RunPendingEffects and
// the watcher stops when the Owner is disposed. Without one they run
// synchronously on the goroutine that changed deps.
func New[T any](deps func() T, fn func(input, prev T), opts ...Option[T]) *Watcher[T] {
	w := &Watcher[T]{fn: fn}
	for _, opt := range opts {
		opt(&w.config)
	}
	w.watching.Store(true)
	w.skipped = w.config.deferred

	w.effect = vango.CreateEffect(func() vango.Cleanup {
		input := deps()
		vango.Untracked(func() { w.handle(input) })
		return nil
	})
	return w
}

func (w *Watcher[T]) handle(input T) {
	w.mu.Lock()
	if w.skipped {
		// A deferred first run does not record prev.
		w.skipped = false
		w.mu.Unlock()
		return
	}
	prev := w.prev
	w.prev = input
	w.mu.Unlock()

	if !w.watching.Load() {
		return
	}
	if w.config.filter != nil && !w.config.filter(input, int(w.times.Load())) {
		return
	}

	run := func() {
		w.times.Add(1)
		w.fn(input, prev)
	}
	if w.config.callWith != nil {
		w.config.callWith(run)
		return
	}
	run()
}

// Pause stops callbacks until Resume. Changes while paused still update
// prev.
func (w *Watcher[T]) Pause() { w.watching.Store(false) }

// Resume re-enables callbacks. It does not replay missed changes.
func (w *Watcher[T]) Resume() { w.watching.Store(true) }

// Watching reports whether callbacks are enabled.
func (w *Watcher[T]) Watching() bool { return w.watching.Load() }

// Times returns the number of callbacks made.
func (w *Watcher[T]) Times() int { return int(w.times.Load()) }

// Stop disposes the underlying effect. Further changes are ignored.
func (w *Watcher[T]) Stop() { w.effect.Dispose() }
