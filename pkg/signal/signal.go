// Package signal wraps vango signals as single objects with named accessor
// and mutator methods.
//
//	count := signal.New(0)
//	count.Set(count.Get() + 1)
//	count.Update(func(n int) int { return n * 2 })
//
//	read, write := count.Source().Read, count.Source().Write
package signal

import "github.com/vango-dev/sugar/pkg/vango"

// Reader is anything with a tracked Get.
type Reader[T any] interface {
	Get() T
}

// Pair is the read/write pair behind an Object. It is a value type: copies
// share the same underlying signal and cannot be re-pointed.
type Pair[T any] struct {
	Read  func() T
	Write func(T) T
}

// Object is a signal exposed as one value.
type Object[T any] struct {
	sig    *vango.Signal[T]
	source Pair[T]
}

// Option configures New.
type Option[T any] func(*vango.Signal[T])

// WithEquals replaces the change detection of the underlying signal.
// Returning false from fn on equal values forces every Set to notify.
func WithEquals[T any](fn func(a, b T) bool) Option[T] {
	return func(s *vango.Signal[T]) {
		s.WithEquals(fn)
	}
}

// New creates an Object holding initial.
func New[T any](initial T, opts ...Option[T]) *Object[T] {
	sig := vango.NewSignal(initial)
	for _, opt := range opts {
		opt(sig)
	}
	return Wrap(sig)
}

// Empty creates an Object holding the zero value of T.
func Empty[T any]() *Object[T] {
	var zero T
	return New(zero)
}

// Wrap exposes an existing signal as an Object.
func Wrap[T any](sig *vango.Signal[T]) *Object[T] {
	o := &Object[T]{sig: sig}
	o.source = Pair[T]{Read: o.Get, Write: o.Set}
	return o
}

// Get returns the value and tracks it.
func (o *Object[T]) Get() T {
	return o.sig.Get()
}

// Peek returns the value without tracking.
func (o *Object[T]) Peek() T {
	return o.sig.Peek()
}

// Set stores v and returns it.
func (o *Object[T]) Set(v T) T {
	o.sig.Set(v)
	return v
}

// Update stores fn(current) and returns the new value.
func (o *Object[T]) Update(fn func(T) T) T {
	var next T
	o.sig.Update(func(cur T) T {
		next = fn(cur)
		return next
	})
	return next
}

// Source returns the read/write pair.
func (o *Object[T]) Source() Pair[T] {
	return o.source
}

// Signal returns the wrapped vango signal.
func (o *Object[T]) Signal() *vango.Signal[T] {
	return o.sig
}

// Untrack reads r without subscribing the running effect or memo.
func Untrack[T any](r Reader[T]) T {
	return vango.UntrackedValue(r.Get)
}
