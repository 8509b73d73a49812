package state

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/typed"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCodec selects how records are encoded in the store. Defaults to JSON.
func WithCodec(codec typed.Codec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// WithClock overrides the time source used for note timestamps and date headers.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides how entity ids are minted.
// The generator receives the entity prefix ("subject" or "note").
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithChangeHook registers a callback invoked after every applied mutation,
// including ones whose store write failed.
// The hook runs outside the manager lock and may call back into the manager.
func WithChangeHook(fn func(core.Event)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// WithValidator replaces the validator used on subject input.
func WithValidator(v *validator.Validate) Option {
	return func(m *Manager) {
		m.validate = v
	}
}

func defaultIDGenerator(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
