package editor

import (
	"context"
	"log/slog"
	"time"
)

// Default timings of the editor.
const (
	DefaultCommitDelay   = 300 * time.Millisecond
	DefaultSavedDuration = 2000 * time.Millisecond
)

// Option configures a Session.
type Option func(*Session)

// WithCommitDelay sets how long a field must stay unchanged before it is committed.
func WithCommitDelay(d time.Duration) Option {
	return func(s *Session) {
		s.commitDelay = d
	}
}

// WithSavedDuration sets how long the saved acknowledgment stays up after a commit.
func WithSavedDuration(d time.Duration) Option {
	return func(s *Session) {
		s.savedDuration = d
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// OnError receives failures of commits made by a timer.
func OnError(fn func(error)) Option {
	return func(s *Session) {
		s.onError = fn
	}
}

// OnSaved is called whenever the saved acknowledgment is raised or lowered.
func OnSaved(fn func(saved bool)) Option {
	return func(s *Session) {
		s.onSaved = fn
	}
}

// WithContext sets the context passed to timer-driven commits.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}
