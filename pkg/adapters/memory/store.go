// Package memory provides an in-memory core.Store, used for ephemeral runs
// and as the fake backing store in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/studynotes/pkg/core"
)

// Store implements core.Store in memory.
// Values are copied on the way in and out so callers cannot alias them.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	puts   int
	failOn map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data:   make(map[string][]byte),
		failOn: make(map[string]error),
	}
}

// Initialize implements core.Store.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// Get implements core.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements core.Store.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failOn[key]; ok {
		return err
	}
	s.data[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// Delete implements core.Deleter.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys implements core.Lister.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// FailPut makes every subsequent Put on key return err. A nil err clears it.
func (s *Store) FailPut(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, key)
		return
	}
	s.failOn[key] = err
}

// Puts reports how many successful writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Keys int `json:"keys"`
	Puts int `json:"puts"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Keys: len(s.data), Puts: s.puts}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
