package studynotes

import (
	"context"
	"log/slog"

	"github.com/aretw0/studynotes/internal/platform"
	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/state"
)

// --- Types ---

type (
	Subject    = core.Subject
	Note       = core.Note
	NoteUpdate = core.NoteUpdate
	Event      = core.Event
	Store      = core.Store
	Manager    = state.Manager
	Vault      = platform.Vault
)

// --- Errors ---

var (
	ErrInvalidInput   = core.ErrInvalidInput
	ErrStorageFailure = core.ErrStorageFailure
	ErrNotFound       = core.ErrNotFound
	ErrNotLoaded      = core.ErrNotLoaded
	ErrReadOnly       = core.ErrReadOnly
)

// --- Configuration ---

// Option configures how a vault is opened.
type Option = platform.Option

// WithAdapter selects the storage adapter by name ("fs", "memory", "sqlite", "redis").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a custom store; the adapter setting is ignored.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger for the store and the manager.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithFormat selects "json" (default) or "yaml" records.
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithVersioning enables or disables git commits of every write.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAutoInit creates the vault when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist requires the vault directory to exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithForceTemp forces the vault into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox. Enabled by default.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithSystemDir sets the hidden directory name (default ".studynotes").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithSQLitePath sets the database file of the sqlite adapter.
func WithSQLitePath(path string) Option {
	return platform.WithSQLitePath(path)
}

// WithRedis sets address and key prefix of the redis adapter.
func WithRedis(addr, prefix string) Option {
	return platform.WithRedis(addr, prefix)
}

// WithWatcherErrorHandler receives runtime failures of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithStateOptions forwards options to the state manager.
func WithStateOptions(opts ...state.Option) Option {
	return platform.WithStateOptions(opts...)
}

// --- Factory ---

// New opens a vault and returns its loaded manager.
func New(uri string, opts ...Option) (*Manager, error) {
	return platform.New(uri, opts...)
}

// Open opens a vault, returning the store alongside the manager.
func Open(ctx context.Context, uri string, opts ...Option) (*Vault, error) {
	return platform.Open(ctx, uri, opts...)
}

// Init creates and initializes the configured store without loading any data.
func Init(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	return platform.Init(ctx, uri, opts...)
}

// FindRoot walks upwards from dir to the nearest vault root.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}
