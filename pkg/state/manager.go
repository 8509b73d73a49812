// Package state implements the domain state manager: it owns the subject and
// note collections plus the current selection, and writes every mutation
// through to a core.Store.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/typed"
)

// Manager owns the in-memory collections and the selection state.
//
// Subjects are kept in insertion order, notes newest-first by insertion.
// Every mutating call persists the affected collection before returning.
// When the store rejects a write the in-memory mutation stays applied and the
// returned error wraps core.ErrStorageFailure; the next successful write of
// that collection brings the store back in line.
type Manager struct {
	mu sync.RWMutex

	store    core.Store
	codec    typed.Codec
	subjRec  *typed.Record[[]core.Subject]
	notesRec *typed.Record[[]core.Note]

	subjects        []core.Subject
	notes           []core.Note
	selectedSubject string
	selectedNote    string
	lastStamp       int64

	loaded    bool
	ready     chan struct{}
	readyOnce sync.Once

	logger   *slog.Logger
	now      func() time.Time
	newID    func(prefix string) string
	onChange func(core.Event)
	validate *validator.Validate
}

// NewManager creates a manager over store. Call Load before using it.
func NewManager(store core.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		ready: make(chan struct{}),
		now:   time.Now,
		newID: defaultIDGenerator,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.validate == nil {
		m.validate = validator.New()
	}
	m.subjRec = typed.NewRecord[[]core.Subject](store, core.SubjectsKey, m.codec, m.logger)
	m.notesRec = typed.NewRecord[[]core.Note](store, core.NotesKey, m.codec, m.logger)
	return m
}

// Load reads both collections from the store. It runs once; later calls are no-ops.
//
// A missing (or unreadable) subject record is replaced by the default subjects,
// which are persisted immediately. A missing note record starts empty.
// If persisting the defaults fails, the manager is still marked ready with the
// defaults in memory and the storage error is returned.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.loaded {
		m.mu.Unlock()
		return nil
	}

	err := m.readLocked(ctx)
	if err == nil || m.subjects != nil {
		m.loaded = true
	}
	m.mu.Unlock()

	if m.loaded {
		m.readyOnce.Do(func() { close(m.ready) })
	}
	return err
}

// Reload re-reads both collections, e.g. after the store reported an external change.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.ErrNotLoaded
	}
	err := m.readLocked(ctx)
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.emit(core.Event{Type: core.EventModify, Kind: core.KindRecord, ID: core.SubjectsKey})
	m.emit(core.Event{Type: core.EventModify, Kind: core.KindRecord, ID: core.NotesKey})
	return nil
}

func (m *Manager) readLocked(ctx context.Context) error {
	subjects, ok, err := m.subjRec.Load(ctx)
	if err != nil {
		return err
	}
	notes, notesOK, err := m.notesRec.Load(ctx)
	if err != nil {
		return err
	}

	if !notesOK || notes == nil {
		notes = []core.Note{}
	}
	m.notes = notes
	m.lastStamp = 0
	for _, n := range notes {
		m.lastStamp = max(m.lastStamp, n.CreatedAt, n.UpdatedAt)
	}

	if ok && subjects != nil {
		m.subjects = subjects
		return nil
	}

	if m.logger != nil {
		m.logger.Info("no subjects stored, seeding defaults", "key", core.SubjectsKey)
	}
	m.subjects = core.DefaultSubjects()
	return m.subjRec.Save(ctx, m.subjects)
}

// Ready is closed once Load has completed.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// IsLoaded reports whether Load has completed.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Subjects returns a copy of the subject collection in insertion order.
func (m *Manager) Subjects() []core.Subject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Subject(nil), m.subjects...)
}

// Notes returns a copy of the note collection, newest insertion first.
func (m *Manager) Notes() []core.Note {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Note(nil), m.notes...)
}

// Subject looks a subject up by id.
func (m *Manager) Subject(id string) (core.Subject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subjectLocked(id)
}

// Note looks a note up by id.
func (m *Manager) Note(id string) (core.Note, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.noteLocked(id)
}

// AddSubject appends a new, non-default subject and persists the subject collection.
// The name is trimmed; a blank name fails with core.ErrInvalidInput and changes nothing.
// An empty icon falls back to core.DefaultIcon.
func (m *Manager) AddSubject(ctx context.Context, name, icon string) (core.Subject, error) {
	subject := core.Subject{
		Name: strings.TrimSpace(name),
		Icon: icon,
	}
	if subject.Icon == "" {
		subject.Icon = core.DefaultIcon
	}
	if err := m.validate.Struct(subject); err != nil {
		return core.Subject{}, fmt.Errorf("%w: subject name: %v", core.ErrInvalidInput, err)
	}

	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.Subject{}, core.ErrNotLoaded
	}

	subject.ID = m.uniqueIDLocked("subject", func(id string) bool {
		_, ok := m.subjectLocked(id)
		return ok
	})
	m.subjects = append(m.subjects, subject)
	err := m.subjRec.Save(ctx, m.subjects)
	m.mu.Unlock()

	m.debug("subject added", "id", subject.ID, "name", subject.Name)
	m.emit(core.Event{Type: core.EventCreate, Kind: core.KindSubject, ID: subject.ID})
	return subject, err
}

// DeleteSubject removes a subject and every note that references it.
// Unknown ids are a no-op. Deleting the selected subject clears both selections.
func (m *Manager) DeleteSubject(ctx context.Context, id string) error {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.ErrNotLoaded
	}

	subjects := m.subjects[:0:0]
	for _, s := range m.subjects {
		if s.ID != id {
			subjects = append(subjects, s)
		}
	}

	var removed []string
	notes := make([]core.Note, 0, len(m.notes))
	for _, n := range m.notes {
		if n.SubjectID == id {
			removed = append(removed, n.ID)
			continue
		}
		notes = append(notes, n)
	}

	if len(subjects) == len(m.subjects) && len(removed) == 0 {
		m.mu.Unlock()
		return nil
	}

	m.subjects = subjects
	m.notes = notes
	if m.selectedSubject == id {
		m.selectedSubject = ""
		m.selectedNote = ""
	}
	for _, nid := range removed {
		if m.selectedNote == nid {
			m.selectedNote = ""
		}
	}

	subjErr := m.subjRec.Save(ctx, m.subjects)
	notesErr := m.notesRec.Save(ctx, m.notes)
	m.mu.Unlock()

	m.debug("subject deleted", "id", id, "cascaded_notes", len(removed))
	for _, nid := range removed {
		m.emit(core.Event{Type: core.EventDelete, Kind: core.KindNote, ID: nid})
	}
	m.emit(core.Event{Type: core.EventDelete, Kind: core.KindSubject, ID: id})

	if subjErr != nil {
		return subjErr
	}
	return notesErr
}

// AddNote creates a note for subjectID, puts it at the front of the collection,
// selects it and persists the note collection.
func (m *Manager) AddNote(ctx context.Context, subjectID string) (core.Note, error) {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.Note{}, core.ErrNotLoaded
	}

	now := m.now()
	stamp := m.stampAt(now)
	note := core.Note{
		ID: m.uniqueIDLocked("note", func(id string) bool {
			_, ok := m.noteLocked(id)
			return ok
		}),
		Title:     core.UntitledNote,
		Content:   core.DateHeader(now) + "\n\n",
		SubjectID: subjectID,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}

	m.notes = append([]core.Note{note}, m.notes...)
	m.selectedNote = note.ID
	err := m.notesRec.Save(ctx, m.notes)
	m.mu.Unlock()

	m.debug("note added", "id", note.ID, "subject", subjectID)
	m.emit(core.Event{Type: core.EventCreate, Kind: core.KindNote, ID: note.ID})
	return note, err
}

// UpdateNote applies the non-nil fields of upd, refreshes UpdatedAt and persists
// the note collection. Unknown ids are a no-op.
func (m *Manager) UpdateNote(ctx context.Context, id string, upd core.NoteUpdate) error {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.ErrNotLoaded
	}

	idx := m.noteIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}

	n := &m.notes[idx]
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	n.UpdatedAt = m.stampAt(m.now())
	err := m.notesRec.Save(ctx, m.notes)
	m.mu.Unlock()

	m.debug("note updated", "id", id)
	m.emit(core.Event{Type: core.EventModify, Kind: core.KindNote, ID: id})
	return err
}

// DeleteNote removes a note. Unknown ids are a no-op.
// Deleting the selected note clears the note selection.
func (m *Manager) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return core.ErrNotLoaded
	}

	idx := m.noteIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}

	m.notes = append(m.notes[:idx:idx], m.notes[idx+1:]...)
	if m.selectedNote == id {
		m.selectedNote = ""
	}
	err := m.notesRec.Save(ctx, m.notes)
	m.mu.Unlock()

	m.debug("note deleted", "id", id)
	m.emit(core.Event{Type: core.EventDelete, Kind: core.KindNote, ID: id})
	return err
}

// NotesForSubject returns the notes of a subject, most recently updated first.
// Ties keep collection order. The result is recomputed on every call.
func (m *Manager) NotesForSubject(subjectID string) []core.Note {
	m.mu.RLock()
	out := make([]core.Note, 0)
	for _, n := range m.notes {
		if n.SubjectID == subjectID {
			out = append(out, n)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// SelectSubject selects a subject and always clears the note selection.
// An empty id clears the subject selection.
func (m *Manager) SelectSubject(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedSubject = id
	m.selectedNote = ""
}

// SelectNote selects a note. An empty id clears the note selection.
func (m *Manager) SelectNote(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedNote = id
}

// ClearSelection resets both selections.
func (m *Manager) ClearSelection() {
	m.SelectSubject("")
}

// SelectedSubjectID returns the raw subject selection.
func (m *Manager) SelectedSubjectID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedSubject, m.selectedSubject != ""
}

// SelectedNoteID returns the raw note selection.
func (m *Manager) SelectedNoteID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedNote, m.selectedNote != ""
}

// SelectedSubject resolves the subject selection against the current collection.
func (m *Manager) SelectedSubject() (core.Subject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selectedSubject == "" {
		return core.Subject{}, false
	}
	return m.subjectLocked(m.selectedSubject)
}

// SelectedNote resolves the note selection against the current collection.
func (m *Manager) SelectedNote() (core.Note, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selectedNote == "" {
		return core.Note{}, false
	}
	return m.noteLocked(m.selectedNote)
}

func (m *Manager) subjectLocked(id string) (core.Subject, bool) {
	for _, s := range m.subjects {
		if s.ID == id {
			return s, true
		}
	}
	return core.Subject{}, false
}

func (m *Manager) noteLocked(id string) (core.Note, bool) {
	if idx := m.noteIndexLocked(id); idx >= 0 {
		return m.notes[idx], true
	}
	return core.Note{}, false
}

func (m *Manager) noteIndexLocked(id string) int {
	for i, n := range m.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) uniqueIDLocked(prefix string, taken func(string) bool) string {
	for {
		id := m.newID(prefix)
		if !taken(id) {
			return id
		}
	}
}

// stampAt converts now to milliseconds, forced strictly past every timestamp
// issued or loaded so far. Callers hold m.mu.
func (m *Manager) stampAt(now time.Time) int64 {
	stamp := now.UnixMilli()
	if stamp <= m.lastStamp {
		stamp = m.lastStamp + 1
	}
	m.lastStamp = stamp
	return stamp
}

func (m *Manager) emit(e core.Event) {
	if m.onChange == nil {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = m.now().UnixMilli()
	}
	m.onChange(e)
}

func (m *Manager) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
