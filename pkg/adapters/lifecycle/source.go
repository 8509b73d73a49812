// Package lifecycle exposes store and state events as lifecycle sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/studynotes/pkg/core"
)

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	kinds  map[string]bool
}

// SourceOption configures a Source.
type SourceOption func(*eventSource)

// WithKinds keeps only events whose Kind is listed.
func WithKinds(kinds ...string) SourceOption {
	return func(s *eventSource) {
		s.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
}

// NewSource creates a lifecycle.Source fed by a core.Event channel,
// such as the one returned by a Watchable store.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.kinds != nil && !s.kinds[e.Kind] {
					continue
				}
				// core.Event implements lifecycle.Event
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
