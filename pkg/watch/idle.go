package watch

import (
	"sync"
	"time"

	"github.com/vango-dev/sugar/pkg/vango"
)

// IdleOption configures Idle.
type IdleOption func(*idleConfig)

type idleConfig struct {
	delay time.Duration
}

// After delays the callback by d once the owner is idle. The timer is
// stopped if the owner is disposed first.
func After(d time.Duration) IdleOption {
	return func(c *idleConfig) { c.delay = d }
}

// Idle runs fn once, after the effects already pending on the current
// Owner have run.
//
// Under an Owner, fn is queued behind those effects and runs on the next
// RunPendingEffects; disposing the Owner before then cancels it. Without an
// Owner fn runs immediately. fn is not tracked. The returned function
// cancels a run that has not started.
//
//	watch.Idle(func() { preload(next) }, watch.After(50*time.Millisecond))
func Idle(fn func(), opts ...IdleOption) (cancel func()) {
	var cfg idleConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var once sync.Once
	call := func() { once.Do(fn) }

	ready := vango.NewSignal(false)
	effect := vango.CreateEffect(func() vango.Cleanup {
		if !ready.Get() {
			return nil
		}
		if cfg.delay <= 0 {
			vango.Untracked(call)
			return nil
		}
		timer := time.AfterFunc(cfg.delay, call)
		return func() { timer.Stop() }
	})
	ready.Set(true)

	return effect.Dispose
}
