package vango

import (
	"sync"
	"sync/atomic"
)

// maxSyncReruns bounds how often an owner-less effect re-runs itself
// because its own body dirtied it.
const maxSyncReruns = 64

// Effect is a side effect that re-runs when something it read changes.
//
// An effect created under an Owner is queued on that Owner when dirty and
// runs on the next Owner.RunPendingEffects. An effect without an Owner
// re-runs synchronously inside MarkDirty.
type Effect struct {
	id uint64
	fn func() Cleanup

	cleanup Cleanup
	owner   *Owner

	sourcesMu sync.Mutex
	sources   []*signalBase

	pending  atomic.Bool
	running  atomic.Bool
	disposed atomic.Bool
}

// CreateEffect creates an effect under the current Owner and runs it once.
func CreateEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: getCurrentOwner(),
	}
	if e.owner != nil {
		e.owner.registerEffect(e)
	}
	e.run()
	return e
}

// MarkDirty implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if !e.pending.CompareAndSwap(false, true) {
		return
	}
	if e.owner != nil {
		e.owner.scheduleEffect(e)
		return
	}
	if e.running.Load() {
		// run picks the flag up when the current pass ends.
		return
	}
	e.run()
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// Dispose stops the effect and runs its last cleanup.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.dropSources()
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed.Load()
}

func (e *Effect) run() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	defer e.running.Store(false)

	for i := 0; i < maxSyncReruns; i++ {
		if e.disposed.Load() {
			return
		}
		e.pending.Store(false)
		e.runOnce()
		if e.owner != nil || !e.pending.Load() {
			return
		}
	}
	e.pending.Store(false)
}

func (e *Effect) runOnce() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.dropSources()

	old := setCurrentListener(e)
	defer setCurrentListener(old)
	e.cleanup = e.fn()
}

func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

func (e *Effect) dropSources() {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	for _, s := range e.sources {
		s.unsubscribe(e)
	}
	e.sources = e.sources[:0]
}

// OnMount runs fn once, untracked.
func OnMount(fn func()) {
	Untracked(fn)
}

// OnUnmount registers fn to run when the current Owner is disposed.
// Without an Owner it is a no-op.
func OnUnmount(fn func()) {
	if o := getCurrentOwner(); o != nil {
		o.OnCleanup(fn)
	}
}

// OnUpdate tracks deps on every run but calls fn only on runs after the
// first, i.e. on changes.
func OnUpdate(deps func(), fn func()) *Effect {
	first := true
	return CreateEffect(func() Cleanup {
		deps()
		if first {
			first = false
			return nil
		}
		Untracked(fn)
		return nil
	})
}
