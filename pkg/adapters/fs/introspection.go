package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Format        string     `json:"format"`
	IndexSize     int        `json:"index_size"`
	Versioning    bool       `json:"versioning"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	LastReconcile *time.Time `json:"last_reconcile,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		SystemDir:     s.config.SystemDir,
		Format:        s.config.Format,
		IndexSize:     s.index.Len(),
		Versioning:    s.config.Versioning,
		ReadOnly:      s.config.ReadOnly,
		WatcherActive: s.watcherActive,
		LastWrite:     s.lastWrite,
		LastReconcile: s.lastReconcile,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Store) recordReconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastReconcile = &now
}
