// Package editor buffers title and content edits of one note and commits
// them to the state manager once typing pauses.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/debounce"
	"github.com/aretw0/studynotes/pkg/state"
)

type field string

const (
	fieldTitle   field = "title"
	fieldContent field = "content"
)

// Session is the editing surface of the selected note.
//
// Each field has its own quiet period: an edit restarts only that field's
// timer. Switching notes drops edits still waiting for their timer.
type Session struct {
	mgr *state.Manager

	mu      sync.Mutex
	noteID  string
	title   string
	content string
	closed  bool

	commits *debounce.Group[field]
	saved   *debounce.Flag

	ctx           context.Context
	commitDelay   time.Duration
	savedDuration time.Duration
	logger        *slog.Logger
	onError       func(error)
	onSaved       func(bool)
}

// NewSession creates a session over mgr. It starts without a note; call Switch.
func NewSession(mgr *state.Manager, opts ...Option) *Session {
	s := &Session{
		mgr:           mgr,
		ctx:           context.Background(),
		commitDelay:   DefaultCommitDelay,
		savedDuration: DefaultSavedDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.commits = debounce.NewGroup[field](s.commitDelay)
	s.saved = debounce.NewFlag(s.savedDuration, s.onSaved)
	return s
}

// Switch binds the session to noteID, discarding uncommitted edits of the
// previous note, and loads the note's current title and content.
// An empty id unbinds the session.
func (s *Session) Switch(noteID string) error {
	s.commits.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("editor session closed")
	}

	s.noteID, s.title, s.content = "", "", ""
	if noteID == "" {
		return nil
	}

	note, ok := s.mgr.Note(noteID)
	if !ok {
		return fmt.Errorf("%w: note %s", core.ErrNotFound, noteID)
	}
	s.noteID = note.ID
	s.title = note.Title
	s.content = note.Content
	return nil
}

// NoteID returns the bound note, or "" when unbound.
func (s *Session) NoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteID
}

// Title returns the buffered title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Content returns the buffered content.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// SetTitle buffers a title edit and schedules its commit.
func (s *Session) SetTitle(v string) error {
	return s.edit(fieldTitle, v)
}

// SetContent buffers a content edit and schedules its commit.
func (s *Session) SetContent(v string) error {
	return s.edit(fieldContent, v)
}

func (s *Session) edit(f field, v string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("editor session closed")
	}
	if s.noteID == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: no note selected", core.ErrNotFound)
	}
	id := s.noteID
	if f == fieldTitle {
		s.title = v
	} else {
		s.content = v
	}
	s.mu.Unlock()

	s.commits.Trigger(f, func() {
		if err := s.commit(s.ctx, id, updateFor(f, v)); err != nil {
			s.report(err)
		}
	})
	return nil
}

func updateFor(f field, v string) core.NoteUpdate {
	if f == fieldTitle {
		return core.NoteUpdate{Title: &v}
	}
	return core.NoteUpdate{Content: &v}
}

// Pending reports whether any field is waiting to be committed.
func (s *Session) Pending() bool {
	return s.commits.Pending(fieldTitle) || s.commits.Pending(fieldContent)
}

// Saved reports whether the saved acknowledgment is showing.
func (s *Session) Saved() bool {
	return s.saved.Up()
}

// Flush commits every pending field now, in a single update.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	id, title, content := s.noteID, s.title, s.content
	s.mu.Unlock()

	var upd core.NoteUpdate
	if s.commits.Cancel(fieldTitle) {
		upd.Title = &title
	}
	if s.commits.Cancel(fieldContent) {
		upd.Content = &content
	}
	if upd.Title == nil && upd.Content == nil {
		return nil
	}
	return s.commit(ctx, id, upd)
}

// Close drops pending commits and stops the timers. Call Flush first to keep them.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.commits.StopAndWait(time.Second)
	s.saved.Lower()
}

func (s *Session) commit(ctx context.Context, id string, upd core.NoteUpdate) error {
	if err := s.mgr.UpdateNote(ctx, id, upd); err != nil {
		return err
	}
	s.saved.Raise()
	if s.logger != nil {
		s.logger.Debug("note committed", "id", id, "title", upd.Title != nil, "content", upd.Content != nil)
	}
	return nil
}

func (s *Session) report(err error) {
	if s.onError != nil {
		s.onError(err)
		return
	}
	if s.logger != nil {
		s.logger.Error("commit failed", "error", err)
	}
}
