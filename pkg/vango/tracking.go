package vango

import (
	"runtime"
	"sync"
)

// trackingState is the reactive state of one goroutine.
type trackingState struct {
	// owner receives effects, cleanups and context values created now.
	owner *Owner

	// listener is subscribed to every signal read. nil disables tracking.
	listener Listener

	// batchDepth counts nested Batch calls.
	batchDepth int

	// pending holds listeners to notify when the outermost batch ends.
	pending []Listener
}

var trackingStates sync.Map // map[uint64]*trackingState

// goroutineID parses the current goroutine id out of the stack header
// ("goroutine 18 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// idle reports whether st carries nothing worth keeping.
func (st *trackingState) idle() bool {
	return st.owner == nil && st.listener == nil && st.batchDepth == 0 && len(st.pending) == 0
}

// lookupState returns the state of the calling goroutine, or nil.
func lookupState() *trackingState {
	if st, ok := trackingStates.Load(goroutineID()); ok {
		return st.(*trackingState)
	}
	return nil
}

// currentState returns the state of the calling goroutine, creating it.
// Callers that change it must call releaseIfIdle when they are done.
func currentState() *trackingState {
	gid := goroutineID()
	if st, ok := trackingStates.Load(gid); ok {
		return st.(*trackingState)
	}
	st := &trackingState{}
	trackingStates.Store(gid, st)
	return st
}

// releaseIfIdle drops the calling goroutine's entry once it is back to the
// zero state, so goroutines that only wrote signals leave nothing behind.
func releaseIfIdle(st *trackingState) {
	if st.idle() {
		trackingStates.CompareAndDelete(goroutineID(), st)
	}
}

func getCurrentListener() Listener {
	if st := lookupState(); st != nil {
		return st.listener
	}
	return nil
}

func setCurrentListener(l Listener) Listener {
	st := lookupState()
	if st == nil {
		if l == nil {
			return nil
		}
		st = currentState()
	}
	old := st.listener
	st.listener = l
	releaseIfIdle(st)
	return old
}

func getCurrentOwner() *Owner {
	if st := lookupState(); st != nil {
		return st.owner
	}
	return nil
}

func setCurrentOwner(o *Owner) *Owner {
	st := lookupState()
	if st == nil {
		if o == nil {
			return nil
		}
		st = currentState()
	}
	old := st.owner
	st.owner = o
	releaseIfIdle(st)
	return old
}

// CurrentOwner returns the Owner new primitives are attached to, or nil.
func CurrentOwner() *Owner {
	return getCurrentOwner()
}

// WithOwner runs fn with owner as the current scope.
//
//	go func() {
//	    vango.WithOwner(owner, func() {
//	        vango.CreateEffect(...) // owned by owner
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l subscribed to every signal read.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// ReleaseGoroutine drops the tracking state of the calling goroutine.
// Entries are dropped on their own once a goroutine leaves every Batch,
// WithOwner and effect; this is for goroutines that exit while inside one.
func ReleaseGoroutine() {
	trackingStates.Delete(goroutineID())
}

// TrackedGoroutines returns the number of goroutines holding tracking
// state. It is meant for leak checks.
func TrackedGoroutines() int {
	n := 0
	trackingStates.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
