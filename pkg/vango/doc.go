// Package vango is the reactive core the sugar helpers are built on.
//
// Dependencies are tracked at runtime: reading a Signal or Memo while an
// Effect or Memo is computing subscribes that listener to the value.
//
//	count := NewSignal(0)
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("doubled:", doubled.Get())
//	    return nil
//	})
//
//	count.Set(2) // prints "doubled: 4"
//
// # Owners
//
// An Owner is a scope that owns effects, cleanups and context values. Effects
// created under an Owner are queued on it when they become dirty and run when
// RunPendingEffects is called. Effects created without an Owner re-run
// synchronously on the goroutine that made them dirty.
//
// # Thread Safety
//
// Primitives are safe for concurrent use. Tracking state (current owner,
// listener and batch depth) is per goroutine, so a goroutine that needs to
// create primitives under an existing scope must enter it with WithOwner.
package vango
