package vango

// Batch defers notifications until fn returns. Listeners dirtied several
// times inside the batch are notified once. Batches nest; only the
// outermost one flushes.
//
//	Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
func Batch(fn func()) {
	st := currentState()
	st.batchDepth++
	defer func() {
		st.batchDepth--
		if st.batchDepth == 0 {
			flushPending(st)
			releaseIfIdle(st)
		}
	}()
	fn()
}

func flushPending(st *trackingState) {
	for len(st.pending) > 0 {
		queue := st.pending
		st.pending = nil

		seen := make(map[uint64]struct{}, len(queue))
		for _, l := range queue {
			id := l.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			l.MarkDirty()
		}
	}
}

// Untracked runs fn without subscribing to anything it reads.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedValue returns read() without subscribing to anything it reads.
func UntrackedValue[T any](read func() T) T {
	var v T
	Untracked(func() { v = read() })
	return v
}
