// Package store provides named state containers with getters, actions,
// Patch, Reset, Subscribe and optional persistence.
//
// A store is defined once and passed around as a handle:
//
//	type Counter struct {
//	    Count int    `json:"count"`
//	    Label string `json:"label"`
//	}
//
//	type CounterActions struct {
//	    Increment func()
//	}
//
//	counter := store.Define("counter", store.Setup[Counter, struct{}, CounterActions]{
//	    State: Counter{Label: "clicks"},
//	    Actions: func(s *store.Store[Counter]) CounterActions {
//	        return CounterActions{
//	            Increment: func() { s.Update(func(c *Counter) { c.Count++ }) },
//	        }
//	    },
//	    Persist: store.PersistDefault[Counter](),
//	})
//
//	counter.Actions.Increment()
//	counter.Patch(map[string]any{"label": "taps"})
//	counter.Reset()
//
// State lives in a vango.Signal, so State() is tracked by effects and memos
// like any other signal read.
//
// # Persistence
//
// With persistence enabled the store reads its key from storage when it is
// defined. A stored value that deserializes replaces the initial state
// without notifying subscribers. The state is then written once, and again
// after every committed change. Read and parse failures leave the initial
// state in place and are logged only when Debug is set.
package store
