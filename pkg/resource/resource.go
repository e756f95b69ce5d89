package resource

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/sugar/pkg/vango"
)

// State is the lifecycle of a Resource.
type State int

const (
	Unresolved State = iota // no fetch started yet
	Pending                 // first fetch in flight
	Ready                   // value loaded
	Refreshing              // refetch in flight, previous value kept
	Errored                 // last fetch failed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Fetcher loads a value.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource is an asynchronously loaded reactive value.
type Resource[T any] struct {
	fetcher Fetcher[T]

	data  *vango.Signal[T]
	state *vango.Signal[State]
	err   *vango.Signal[error]

	ctx        context.Context
	retries    int
	retryDelay time.Duration

	deferred bool

	mu      sync.Mutex
	fetchID uint64
	cancel  context.CancelFunc
}

// Option configures a Resource.
type Option[T any] func(*Resource[T])

// WithInitial sets the value Get returns before the first fetch resolves.
func WithInitial[T any](v T) Option[T] {
	return func(r *Resource[T]) {
		r.data = vango.NewSignal(v)
	}
}

// WithContext sets the parent context for every fetch. Default:
// context.Background().
func WithContext[T any](ctx context.Context) Option[T] {
	return func(r *Resource[T]) {
		r.ctx = ctx
	}
}

// WithRetry retries a failed fetch n more times, waiting delay between
// attempts.
func WithRetry[T any](n int, delay time.Duration) Option[T] {
	return func(r *Resource[T]) {
		r.retries = n
		r.retryDelay = delay
	}
}

// Deferred prevents the initial fetch. The resource stays Unresolved until
// Refetch is called.
func Deferred[T any]() Option[T] {
	return func(r *Resource[T]) {
		r.deferred = true
	}
}

// New creates a Resource and starts the first fetch.
func New[T any](fetcher Fetcher[T], opts ...Option[T]) *Resource[T] {
	var zero T
	r := &Resource[T]{
		fetcher: fetcher,
		data:    vango.NewSignal(zero),
		state:   vango.NewSignal(Unresolved),
		err:     vango.NewSignal[error](nil),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.deferred {
		r.Refetch()
	}
	return r
}

// NewKeyed creates a Resource whose fetcher receives key(). The resource
// refetches every time key's dependencies change.
func NewKeyed[K comparable, T any](key func() K, fetcher func(ctx context.Context, key K) (T, error), opts ...Option[T]) *Resource[T] {
	var current K
	var mu sync.Mutex
	r := New(func(ctx context.Context) (T, error) {
		mu.Lock()
		k := current
		mu.Unlock()
		return fetcher(ctx, k)
	}, append(opts, Deferred[T]())...)

	vango.CreateEffect(func() vango.Cleanup {
		k := key()
		mu.Lock()
		current = k
		mu.Unlock()
		vango.Untracked(func() { r.Refetch() })
		return nil
	})
	return r
}

// Get returns the loaded value and tracks it.
func (r *Resource[T]) Get() T { return r.data.Get() }

// Peek returns the loaded value without tracking.
func (r *Resource[T]) Peek() T { return r.data.Peek() }

// State returns the lifecycle state and tracks it.
func (r *Resource[T]) State() State { return r.state.Get() }

// Loading reports whether a fetch is in flight.
func (r *Resource[T]) Loading() bool {
	s := r.state.Get()
	return s == Pending || s == Refreshing
}

// Err returns the error of the last fetch, if it failed.
func (r *Resource[T]) Err() error { return r.err.Get() }

// Mutate overwrites the value without fetching and returns it. An
// in-flight fetch still lands afterwards.
func (r *Resource[T]) Mutate(v T) T {
	vango.Batch(func() {
		r.data.Set(v)
		r.err.Set(nil)
		r.state.Set(Ready)
	})
	return v
}

// Refetch cancels any in-flight fetch and starts a new one. The returned
// channel is closed once this fetch has settled or been superseded.
func (r *Resource[T]) Refetch() <-chan struct{} {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.fetchID++
	id := r.fetchID
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.mu.Unlock()

	if r.state.Peek() == Unresolved {
		r.state.Set(Pending)
	} else {
		r.state.Set(Refreshing)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer vango.ReleaseGoroutine()
		defer cancel()

		v, err := r.fetchWithRetry(ctx)

		r.mu.Lock()
		current := r.fetchID == id
		r.mu.Unlock()
		if !current {
			return
		}

		vango.Batch(func() {
			if err != nil {
				r.err.Set(err)
				r.state.Set(Errored)
				return
			}
			r.data.Set(v)
			r.err.Set(nil)
			r.state.Set(Ready)
		})
	}()
	return done
}

func (r *Resource[T]) fetchWithRetry(ctx context.Context) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return v, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
		v, err = r.fetcher(ctx)
		if err == nil {
			return v, nil
		}
	}
	return v, err
}
