package platform

import (
	"log/slog"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/state"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterMemory = "memory"
	AdapterSQLite = "sqlite"
	AdapterRedis  = "redis"
)

// options holds the internal configuration for a vault.
type options struct {
	store        core.Store
	logger       *slog.Logger
	adapter      string
	format       string
	versioning   *bool
	autoInit     bool
	mustExist    bool
	readOnly     bool
	forceTemp    bool
	devSafety    bool
	systemDir    string
	sqlitePath   string
	redisAddr    string
	redisPrefix  string
	errorHandler func(error)
	stateOpts    []state.Option
}

// Option defines a functional option for opening a vault.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		format:    "json",
		devSafety: true,
	}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdapter selects the storage adapter by name ("fs", "memory", "sqlite", "redis").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithStore injects a ready-made store. The adapter setting is ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets the logger for the store and the state manager.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFormat selects the record encoding: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(o *options) {
		switch format {
		case "":
		case "yml":
			o.format = "yaml"
		default:
			o.format = format
		}
	}
}

// WithVersioning enables or disables git commits of every write (fs adapter).
// When not set, versioning follows the presence of a .git directory in the vault.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithAutoInit creates the vault directory (and git repo when versioning) if missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist requires the vault directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly rejects every write with core.ErrReadOnly.
// Read-only vaults bypass the dev sandbox and use the real path.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithForceTemp forces the vault into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// By default (true) the vault is redirected to a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSystemDir sets the hidden directory name used by the fs adapter.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithSQLitePath sets the database file for the sqlite adapter.
// Defaults to studynotes.db inside the vault path.
func WithSQLitePath(path string) Option {
	return func(o *options) {
		o.sqlitePath = path
	}
}

// WithRedis sets the server address and key prefix for the redis adapter.
func WithRedis(addr, prefix string) Option {
	return func(o *options) {
		o.redisAddr = addr
		o.redisPrefix = prefix
	}
}

// WithWatcherErrorHandler receives runtime failures of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithStateOptions passes options through to the state manager.
func WithStateOptions(opts ...state.Option) Option {
	return func(o *options) {
		o.stateOpts = append(o.stateOpts, opts...)
	}
}
