package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/studynotes/pkg/adapters/fs"
	"github.com/aretw0/studynotes/pkg/adapters/memory"
	"github.com/aretw0/studynotes/pkg/adapters/redis"
	"github.com/aretw0/studynotes/pkg/adapters/sqlite"
	"github.com/aretw0/studynotes/pkg/core"
)

// Init builds and initializes the store selected by the options.
// The uri is adapter-specific: a vault directory for fs and sqlite, a
// server address for redis, ignored for memory.
func Init(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	o := newOptions(opts)
	store, _, err := initStore(ctx, uri, o)
	return store, err
}

// initStore returns the initialized store and the resolved location.
func initStore(ctx context.Context, uri string, o *options) (core.Store, string, error) {
	if o.store != nil {
		if err := o.store.Initialize(ctx); err != nil {
			return nil, "", err
		}
		return o.store, uri, nil
	}

	var (
		store    core.Store
		location string
		err      error
	)

	switch o.adapter {
	case AdapterFS:
		store, location, err = initFS(uri, o)
	case AdapterMemory:
		store, location = memory.New(), "memory"
	case AdapterSQLite:
		store, location = initSQLite(uri, o)
	case AdapterRedis:
		store, location = initRedis(uri, o)
	default:
		return nil, "", fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, "", err
	}

	if err := store.Initialize(ctx); err != nil {
		return nil, "", err
	}
	return store, location, nil
}

// resolvePath applies the dev sandbox to a user supplied path.
func resolvePath(path string, o *options) (string, bool) {
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolveVaultPath(path, useTemp)

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	} else if o.logger != nil && IsDevRun() {
		o.logger.Debug("dev sandbox bypassed", "path", resolved, "read_only", o.readOnly)
	}
	return resolved, useTemp
}

// initFS handles the configuration of the filesystem adapter.
func initFS(path string, o *options) (core.Store, string, error) {
	resolved, useTemp := resolvePath(path, o)

	if o.format != "json" && o.format != "yaml" {
		return nil, "", fmt.Errorf("unsupported format for fs adapter: %s", o.format)
	}

	versioning := false
	if o.versioning != nil {
		versioning = *o.versioning
	} else if _, err := os.Stat(filepath.Join(resolved, ".git")); err == nil {
		versioning = true
		if o.logger != nil {
			o.logger.Debug("auto-detected versioning", "reason", ".git present")
		}
	}

	store := fs.NewStore(fs.Config{
		Path:         resolved,
		SystemDir:    o.systemDir,
		Format:       o.format,
		Versioning:   versioning,
		AutoInit:     o.autoInit || useTemp,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	return store, resolved, nil
}

func initSQLite(path string, o *options) (core.Store, string) {
	dbPath := o.sqlitePath
	if dbPath == "" {
		dir, _ := resolvePath(path, o)
		dbPath = filepath.Join(dir, sqlite.DefaultFile)
	}
	return sqlite.NewStore(sqlite.Config{Path: dbPath, Logger: o.logger}), dbPath
}

func initRedis(uri string, o *options) (core.Store, string) {
	addr := o.redisAddr
	if addr == "" {
		addr = uri
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewStore(redis.Config{Addr: addr, Prefix: o.redisPrefix, Logger: o.logger}), addr
}
