package vango

// Listener is notified when one of the values it read has changed.
// Effects and memos implement it.
type Listener interface {
	// MarkDirty reports that a dependency changed.
	MarkDirty()

	// ID identifies the listener for deduplication.
	ID() uint64
}

// Cleanup is returned by an effect body and runs before the next run or on
// disposal.
type Cleanup func()

// sourceTracker is implemented by listeners that remember what they read so
// they can unsubscribe before re-running.
type sourceTracker interface {
	Listener
	addSource(source *signalBase)
}
