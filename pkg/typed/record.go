// Package typed binds record keys of a core.Store to Go types.
package typed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/studynotes/pkg/core"
)

// Record wraps a single key of a core.Store to provide type-safe access.
// It acts as the application-layer adapter between raw bytes and typed values.
type Record[T any] struct {
	store  core.Store
	key    string
	codec  Codec
	logger *slog.Logger
}

// NewRecord creates a typed view over key. A nil codec means JSON.
func NewRecord[T any](store core.Store, key string, codec Codec, logger *slog.Logger) *Record[T] {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Record[T]{store: store, key: key, codec: codec, logger: logger}
}

// Key returns the store key this record is bound to.
func (r *Record[T]) Key() string {
	return r.key
}

// Load reads and decodes the record.
//
// A missing key and an undecodable value are both reported as absent
// (ok == false, err == nil) so first-run initialization can take over.
// Any other store error is returned wrapped in core.ErrStorageFailure.
func (r *Record[T]) Load(ctx context.Context) (value T, ok bool, err error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("%w: load %s: %w", core.ErrStorageFailure, r.key, err)
	}

	var decoded T
	if err := r.codec.Unmarshal(data, &decoded); err != nil {
		if r.logger != nil {
			r.logger.Warn("discarding unreadable record", "key", r.key, "format", r.codec.Name(), "error", err)
		}
		return value, false, nil
	}

	return decoded, true, nil
}

// Save encodes v and writes it under the record key.
func (r *Record[T]) Save(ctx context.Context, v T) error {
	data, err := r.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", core.ErrStorageFailure, r.key, err)
	}

	if err := r.store.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("%w: save %s: %w", core.ErrStorageFailure, r.key, err)
	}
	return nil
}
