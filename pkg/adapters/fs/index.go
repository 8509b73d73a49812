package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// indexEntry records what the store last wrote for a key.
type indexEntry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// index tracks the files written by this store, persisted as
// {vault}/{systemDir}/index.json. The watcher consults it to tell
// our own writes apart from external edits.
type index struct {
	path    string
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // keyed by record key
	dirty   bool
	mu      sync.RWMutex
}

func newIndex(vaultPath, systemDir string) *index {
	return &index{
		path:    filepath.Join(vaultPath, systemDir, "index.json"),
		Version: 1,
		Entries: make(map[string]*indexEntry),
	}
}

// Load reads the index from disk. A missing or corrupted file yields an empty index.
func (x *index) Load() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	data, err := os.ReadFile(x.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, x); err != nil {
		x.Entries = make(map[string]*indexEntry)
		return nil
	}
	if x.Entries == nil {
		x.Entries = make(map[string]*indexEntry)
	}

	x.dirty = false
	return nil
}

// Save persists the index if it changed since the last Load or Save.
func (x *index) Save() error {
	x.mu.RLock()
	if !x.dirty {
		x.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(x, "", "  ")
	x.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(x.path, data, 0644); err != nil {
		return err
	}

	x.mu.Lock()
	x.dirty = false
	x.mu.Unlock()
	return nil
}

// Matches reports whether the entry for key was written with the given mtime.
func (x *index) Matches(key string, mtime time.Time) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entry, ok := x.Entries[key]
	if !ok {
		return false
	}
	return entry.LastModified.Equal(mtime)
}

// Has reports whether key is tracked.
func (x *index) Has(key string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.Entries[key]
	return ok
}

func (x *index) Set(key string, entry *indexEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.Entries[key] = entry
	x.dirty = true
}

func (x *index) Delete(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.Entries[key]; ok {
		delete(x.Entries, key)
		x.dirty = true
	}
}

// Len returns the number of tracked keys.
func (x *index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.Entries)
}
