// Package debounce coalesces bursts of calls into a single deferred call.
//
// A Debouncer holds at most one pending callback. Each Trigger replaces the
// pending callback and restarts the delay, so only the last call of a burst
// runs. Group keys independent debouncers, and Flag is a boolean that lowers
// itself after a timeout.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays a callback until no new Trigger arrived for the configured delay.
// The zero value is not usable; use New.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	fn      func()
	gen     uint64
	stopped bool
	running sync.WaitGroup
}

// New returns a Debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn to run after the delay, replacing any pending callback.
// It is a no-op after Stop.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.fn = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.fn == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	fn()
}

// take detaches the pending callback, if any.
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.fn
	d.fn = nil
	return fn
}

// Cancel drops the pending callback. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.take() != nil
}

// Flush runs the pending callback immediately on the caller's goroutine.
// It reports whether a callback ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a callback is waiting for its delay to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

// Stop cancels the pending callback and rejects further triggers.
// Callbacks already running are not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
	d.stopped = true
}

// StopAndWait stops the debouncer and waits up to timeout for running
// callbacks to return. It reports false on timeout.
func (d *Debouncer) StopAndWait(timeout time.Duration) bool {
	d.Stop()
	return waitTimeout(&d.running, timeout)
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
