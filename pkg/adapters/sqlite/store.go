// Package sqlite stores records in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aretw0/studynotes/pkg/core"
)

// DefaultFile is the database file name used inside a vault.
const DefaultFile = "studynotes.db"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

const (
	queryGet    = `SELECT value FROM kv WHERE key = ?`
	queryPut    = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	queryDelete = `DELETE FROM kv WHERE key = ?`
	queryKeys   = `SELECT key FROM kv ORDER BY key`
)

// Config holds the configuration for the SQLite store.
type Config struct {
	Path   string   // database file; ignored when DB is set
	DB     *sqlx.DB // optional pre-opened handle
	Logger *slog.Logger
}

// Store implements core.Store on SQLite.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	db     *sqlx.DB
	owned  bool
	writes int
	now    func() time.Time
}

// NewStore creates a store. The database is opened by Initialize.
func NewStore(cfg Config) *Store {
	return &Store{
		path:   cfg.Path,
		db:     cfg.DB,
		logger: cfg.Logger,
		now:    time.Now,
	}
}

// Initialize opens the database (unless one was injected) and creates the schema.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		if s.path == "" {
			return fmt.Errorf("sqlite: database path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return fmt.Errorf("sqlite: failed to create directory: %w", err)
		}
		db, err := sqlx.Open("sqlite3", s.path)
		if err != nil {
			return fmt.Errorf("sqlite: failed to open database: %w", err)
		}
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
			db.Close()
			return fmt.Errorf("sqlite: failed to set PRAGMA: %w", err)
		}
		s.db = db
		s.owned = true
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: failed to initialize schema: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("sqlite store ready", "path", s.path)
	}
	return nil
}

func (s *Store) handle() (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("sqlite: store not initialized")
	}
	return s.db, nil
}

// Get returns the stored value or core.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := db.GetContext(ctx, &value, queryGet, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, nil
}

// Put inserts or replaces the value for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	if _, err := db.ExecContext(ctx, queryPut, key, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("sqlite: put %s: %w", key, err)
	}

	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, queryDelete, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := db.SelectContext(ctx, &keys, queryKeys); err != nil {
		return nil, fmt.Errorf("sqlite: list keys: %w", err)
	}
	return keys, nil
}

// Close releases the database if the store opened it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil || !s.owned {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path   string `json:"path"`
	Open   bool   `json:"open"`
	Writes int    `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Path: s.path, Open: s.db != nil, Writes: s.writes}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var _ core.Store = (*Store)(nil)
var _ core.Deleter = (*Store)(nil)
var _ core.Lister = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
