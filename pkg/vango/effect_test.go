package vango

import "testing"

func TestEffectRunsImmediatelyAndOnChange(t *testing.T) {
	count := NewSignal(0)
	var seen []int

	CreateEffect(func() Cleanup {
		seen = append(seen, count.Get())
		return nil
	})
	count.Set(1)
	count.Set(2)

	want := []int{0, 1, 2}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestEffectCleanupAndDispose(t *testing.T) {
	count := NewSignal(0)
	cleanups := 0
	runs := 0

	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return func() { cleanups++ }
	})
	count.Set(1)
	if cleanups != 1 {
		t.Errorf("cleanups after rerun = %d, want 1", cleanups)
	}

	e.Dispose()
	if cleanups != 2 {
		t.Errorf("cleanups after Dispose = %d, want 2", cleanups)
	}
	count.Set(2)
	if runs != 2 {
		t.Errorf("runs = %d, want 2 (no run after Dispose)", runs)
	}
}

func TestOwnedEffectIsDeferred(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	count := NewSignal(0)
	runs := 0
	WithOwner(owner, func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	count.Set(1)
	if runs != 1 {
		t.Fatalf("runs before flush = %d, want 1", runs)
	}
	if !owner.HasPendingEffects() {
		t.Fatal("owner should have pending effects")
	}
	owner.RunPendingEffects()
	if runs != 2 {
		t.Errorf("runs after flush = %d, want 2", runs)
	}
}

func TestEffectSelfWriteIsBounded(t *testing.T) {
	n := NewSignal(0)
	CreateEffect(func() Cleanup {
		v := n.Get()
		if v < 5 {
			n.Set(v + 1)
		}
		return nil
	})
	if got := n.Peek(); got != 5 {
		t.Errorf("n = %d, want 5", got)
	}
}

func TestOnUpdateSkipsFirstRun(t *testing.T) {
	count := NewSignal(0)
	calls := 0
	OnUpdate(func() { _ = count.Get() }, func() { calls++ })

	if calls != 0 {
		t.Fatalf("calls after create = %d", calls)
	}
	count.Set(1)
	if calls != 1 {
		t.Errorf("calls after change = %d, want 1", calls)
	}
}

func TestMemoTracksDependencies(t *testing.T) {
	count := NewSignal(2)
	computes := 0
	doubled := NewMemo(func() int {
		computes++
		return count.Get() * 2
	})

	if got := doubled.Get(); got != 4 {
		t.Fatalf("doubled = %d, want 4", got)
	}
	_ = doubled.Get()
	if computes != 1 {
		t.Errorf("computes = %d, want 1 (cached)", computes)
	}

	var seen int
	CreateEffect(func() Cleanup {
		seen = doubled.Get()
		return nil
	})
	count.Set(5)
	if seen != 10 {
		t.Errorf("effect saw %d, want 10", seen)
	}
}
