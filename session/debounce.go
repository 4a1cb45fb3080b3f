package session

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one run. Only the function
// passed to the last Trigger of a burst runs, wait after that trigger. A new
// Trigger also cancels the context of any run still in flight, so a stale
// result is never mistaken for a current one.
type Debouncer struct {
	wait time.Duration
	base context.Context

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// NewDebouncer returns a Debouncer whose runs derive their context from ctx.
func NewDebouncer(ctx context.Context, wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait, base: ctx}
}

// Trigger schedules fn and supersedes everything scheduled or running before.
func (d *Debouncer) Trigger(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen, fn) })
}

func (d *Debouncer) fire(gen uint64, fn func(ctx context.Context)) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	defer cancel()
	fn(ctx)
}

// Stop drops any pending run, cancels the one in flight and waits for it
// to return. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
}
