package debounce

import (
	"sync"
	"time"
)

// Flag is a boolean that lowers itself a fixed time after the last Raise.
type Flag struct {
	duration time.Duration

	mu       sync.Mutex
	up       bool
	gen      uint64
	timer    *time.Timer
	onChange func(up bool)
}

// NewFlag returns a lowered Flag that stays up for duration after each Raise.
// onChange, if not nil, is called outside the flag's lock on every transition.
func NewFlag(duration time.Duration, onChange func(up bool)) *Flag {
	return &Flag{duration: duration, onChange: onChange}
}

// Raise sets the flag and restarts its countdown.
func (f *Flag) Raise() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	changed := !f.up
	f.up = true
	f.timer = time.AfterFunc(f.duration, func() { f.expire(gen) })
	f.mu.Unlock()

	if changed {
		f.notify(true)
	}
}

func (f *Flag) expire(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || !f.up {
		f.mu.Unlock()
		return
	}
	f.up = false
	f.timer = nil
	f.mu.Unlock()

	f.notify(false)
}

// Lower clears the flag immediately.
func (f *Flag) Lower() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
	changed := f.up
	f.up = false
	f.mu.Unlock()

	if changed {
		f.notify(false)
	}
}

// Up reports whether the flag is raised.
func (f *Flag) Up() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.up
}

func (f *Flag) notify(up bool) {
	if f.onChange != nil {
		f.onChange(up)
	}
}
