package vango

import "sync/atomic"

var idCounter atomic.Uint64

// nextID returns a process-unique identifier for a reactive primitive.
func nextID() uint64 {
	return idCounter.Add(1)
}
