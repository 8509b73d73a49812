package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/studynotes/pkg/core"
)

// watchDelay is how long a key must stay quiet before its event is emitted.
const watchDelay = 50 * time.Millisecond

// Watch reports external changes to records whose key matches pattern
// (a doublestar glob, "" matches everything). Writes made through this
// Store are not reported. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event, 16)
	w := newWatchWorker(s, pattern, events)
	w.closeOnExit = true

	if err := w.Start(ctx); err != nil {
		close(events)
		return nil, err
	}
	return events, nil
}

func matchKey(pattern, key string) bool {
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}

// classify compares the record file for key against the index and returns
// the event an observer should see, acknowledging it in the index.
// ok is false when the file is exactly what this store last wrote or removed.
func (s *Store) classify(key string) (core.Event, bool) {
	ev := core.Event{
		Kind:      core.KindRecord,
		ID:        key,
		Timestamp: time.Now().UnixMilli(),
	}

	info, err := os.Stat(filepath.Join(s.Path, s.filename(key)))
	if err != nil {
		if !s.index.Has(key) {
			return ev, false
		}
		s.index.Delete(key)
		_ = s.index.Save()
		ev.Type = core.EventDelete
		return ev, true
	}

	if s.index.Matches(key, info.ModTime()) {
		return ev, false
	}

	ev.Type = core.EventModify
	if !s.index.Has(key) {
		ev.Type = core.EventCreate
	}
	s.index.Set(key, &indexEntry{Key: key, Size: info.Size(), LastModified: info.ModTime()})
	_ = s.index.Save()
	return ev, true
}

// Reconcile scans the vault for changes the watcher may have missed
// (for example while git held its index lock) and returns them.
func (s *Store) Reconcile(ctx context.Context, pattern string) ([]core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(keys))
	var events []core.Event
	for _, key := range keys {
		seen[key] = true
		if !matchKey(pattern, key) {
			continue
		}
		if ev, ok := s.classify(key); ok {
			events = append(events, ev)
		}
	}

	s.index.mu.RLock()
	var gone []string
	for key := range s.index.Entries {
		if !seen[key] && matchKey(pattern, key) {
			gone = append(gone, key)
		}
	}
	s.index.mu.RUnlock()

	for _, key := range gone {
		if ev, ok := s.classify(key); ok {
			events = append(events, ev)
		}
	}

	s.recordReconcile()
	return events, nil
}
