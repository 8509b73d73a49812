package shell

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/editor"
	"github.com/aretw0/studynotes/pkg/state"
)

// Screen is a step of the navigation stack.
type Screen int

const (
	ScreenSubjects Screen = iota
	ScreenNotes
	ScreenEditor
)

func (s Screen) String() string {
	switch s {
	case ScreenSubjects:
		return "subjects"
	case ScreenNotes:
		return "notes"
	case ScreenEditor:
		return "editor"
	}
	return "unknown"
}

// Navigator drives the subjects → notes → editor stack on top of a Manager.
// Selection lives in the Manager; the Navigator only tracks the visible screen.
type Navigator struct {
	mgr *state.Manager

	mu     sync.Mutex
	layout Layout
	screen Screen
	editor *editor.Session
}

// NewNavigator starts on the subjects screen.
func NewNavigator(mgr *state.Manager, layout Layout) *Navigator {
	return &Navigator{mgr: mgr, layout: layout, screen: ScreenSubjects}
}

// AttachEditor makes the navigator rebind s whenever the selected note changes.
func (n *Navigator) AttachEditor(s *editor.Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.editor = s
}

// Layout returns the current layout.
func (n *Navigator) Layout() Layout {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.layout
}

// SetLayout switches layout, e.g. after a terminal resize. The screen is kept.
func (n *Navigator) SetLayout(l Layout) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.layout = l
}

// Screen returns the top of the navigation stack.
func (n *Navigator) Screen() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// Panes lists the screens to render: all three on Desktop, only the current one on Mobile.
func (n *Navigator) Panes() []Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.layout == Desktop {
		return []Screen{ScreenSubjects, ScreenNotes, ScreenEditor}
	}
	return []Screen{n.screen}
}

// SelectSubject opens the notes of a subject.
func (n *Navigator) SelectSubject(id string) error {
	if _, ok := n.mgr.Subject(id); !ok {
		return fmt.Errorf("%w: subject %s", core.ErrNotFound, id)
	}
	n.mgr.SelectSubject(id)
	return n.show(ScreenNotes, "")
}

// SelectNote opens a note in the editor.
func (n *Navigator) SelectNote(id string) error {
	if _, ok := n.mgr.Note(id); !ok {
		return fmt.Errorf("%w: note %s", core.ErrNotFound, id)
	}
	n.mgr.SelectNote(id)
	return n.show(ScreenEditor, id)
}

// AddNote creates a note in the selected subject and opens it.
func (n *Navigator) AddNote(ctx context.Context) (core.Note, error) {
	subjectID, ok := n.mgr.SelectedSubjectID()
	if !ok {
		return core.Note{}, fmt.Errorf("%w: no subject selected", core.ErrInvalidInput)
	}
	note, err := n.mgr.AddNote(ctx, subjectID)
	if note.ID == "" {
		return note, err
	}
	if showErr := n.show(ScreenEditor, note.ID); showErr != nil && err == nil {
		err = showErr
	}
	return note, err
}

// DeleteNote removes a note. When the open note was deleted the editor
// returns to the note list; other screens stay where they are.
func (n *Navigator) DeleteNote(ctx context.Context, id string) error {
	err := n.mgr.DeleteNote(ctx, id)
	if _, ok := n.mgr.SelectedNoteID(); !ok && n.Screen() == ScreenEditor {
		_ = n.show(ScreenNotes, "")
	}
	return err
}

// DeleteSubject removes a subject and its notes. When the subject was open
// the navigator returns to the subject list.
func (n *Navigator) DeleteSubject(ctx context.Context, id string) error {
	err := n.mgr.DeleteSubject(ctx, id)
	if _, ok := n.mgr.SelectedSubjectID(); !ok {
		_ = n.show(ScreenSubjects, "")
	}
	return err
}

// Back pops one screen. Leaving the editor clears the note selection, leaving
// the note list clears the subject selection. It reports false on the subjects screen.
func (n *Navigator) Back() bool {
	switch n.Screen() {
	case ScreenEditor:
		n.mgr.SelectNote("")
		_ = n.show(ScreenNotes, "")
		return true
	case ScreenNotes:
		n.mgr.ClearSelection()
		_ = n.show(ScreenSubjects, "")
		return true
	}
	return false
}

func (n *Navigator) show(screen Screen, noteID string) error {
	n.mu.Lock()
	n.screen = screen
	ed := n.editor
	n.mu.Unlock()

	if ed == nil || ed.NoteID() == noteID {
		return nil
	}
	return ed.Switch(noteID)
}
