package debounce

import (
	"sync"
	"time"
)

// Group keeps one Debouncer per key, all sharing the same delay.
type Group[K comparable] struct {
	delay time.Duration

	mu      sync.Mutex
	members map[K]*Debouncer
	stopped bool
}

// NewGroup returns an empty Group.
func NewGroup[K comparable](delay time.Duration) *Group[K] {
	return &Group[K]{
		delay:   delay,
		members: make(map[K]*Debouncer),
	}
}

func (g *Group[K]) get(key K) *Debouncer {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return nil
	}
	d, ok := g.members[key]
	if !ok {
		d = New(g.delay)
		g.members[key] = d
	}
	return d
}

func (g *Group[K]) lookup(key K) *Debouncer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members[key]
}

// Trigger schedules fn under key.
func (g *Group[K]) Trigger(key K, fn func()) {
	if d := g.get(key); d != nil {
		d.Trigger(fn)
	}
}

// Cancel drops the pending callback for key.
func (g *Group[K]) Cancel(key K) bool {
	if d := g.lookup(key); d != nil {
		return d.Cancel()
	}
	return false
}

// CancelAll drops every pending callback and returns how many were dropped.
func (g *Group[K]) CancelAll() int {
	n := 0
	for _, d := range g.snapshot() {
		if d.Cancel() {
			n++
		}
	}
	return n
}

// Flush runs the pending callback for key now.
func (g *Group[K]) Flush(key K) bool {
	if d := g.lookup(key); d != nil {
		return d.Flush()
	}
	return false
}

// FlushAll runs every pending callback now and returns how many ran.
func (g *Group[K]) FlushAll() int {
	n := 0
	for _, d := range g.snapshot() {
		if d.Flush() {
			n++
		}
	}
	return n
}

// Pending reports whether key has a pending callback.
func (g *Group[K]) Pending(key K) bool {
	if d := g.lookup(key); d != nil {
		return d.Pending()
	}
	return false
}

// StopAndWait stops every member and waits for running callbacks.
func (g *Group[K]) StopAndWait(timeout time.Duration) bool {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()

	deadline := time.Now().Add(timeout)
	ok := true
	for _, d := range g.snapshot() {
		if !d.StopAndWait(time.Until(deadline)) {
			ok = false
		}
	}
	return ok
}

func (g *Group[K]) snapshot() []*Debouncer {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Debouncer, 0, len(g.members))
	for _, d := range g.members {
		out = append(out, d)
	}
	return out
}
