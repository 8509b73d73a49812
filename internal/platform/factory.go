package platform

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/state"
	"github.com/aretw0/studynotes/pkg/typed"
)

// Vault bundles an initialized store with the state manager loaded from it.
type Vault struct {
	Store    core.Store
	Manager  *state.Manager
	Adapter  string
	Location string // directory, database file or server address
}

// Open initializes the configured store and loads the manager.
//
//	v, err := platform.Open(ctx, "./notes", platform.WithFormat("yaml"))
func Open(ctx context.Context, uri string, opts ...Option) (*Vault, error) {
	o := newOptions(opts)

	codec, err := typed.CodecFor(o.format)
	if err != nil {
		return nil, err
	}

	store, location, err := initStore(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	stateOpts := append([]state.Option{
		state.WithLogger(o.logger),
		state.WithCodec(codec),
	}, o.stateOpts...)
	mgr := state.NewManager(store, stateOpts...)

	v := &Vault{Store: store, Manager: mgr, Adapter: o.adapter, Location: location}
	if o.store != nil {
		v.Adapter = "custom"
	}

	// Load persists defaults on a fresh vault; a failed write still leaves a
	// usable manager, so only report it.
	if err := mgr.Load(ctx); err != nil {
		if !errors.Is(err, core.ErrStorageFailure) || !mgr.IsLoaded() {
			_ = v.Close()
			return nil, err
		}
		return v, err
	}
	return v, nil
}

// New opens a vault and returns only its manager.
func New(uri string, opts ...Option) (*state.Manager, error) {
	v, err := Open(context.Background(), uri, opts...)
	if v == nil {
		return nil, err
	}
	return v.Manager, err
}

// Close releases stores holding connections (sqlite, redis).
func (v *Vault) Close() error {
	if c, ok := v.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
