// Package core holds the StudyNotes domain types: subjects, notes, change
// events, sentinel errors and the storage port.
package core

import (
	"fmt"
	"time"
)

// Record keys under which the two collections are persisted.
const (
	SubjectsKey = "studynotes-subjects"
	NotesKey    = "studynotes-notes"
)

const (
	// UntitledNote is the title given to freshly created notes.
	UntitledNote = "Untitled Note"
	// DefaultIcon is used when a subject is added without an icon.
	DefaultIcon = "📁"
)

// Subject is a category that owns a collection of notes.
type Subject struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name" validate:"required"`
	Icon      string `json:"icon" yaml:"icon"`
	IsDefault bool   `json:"isDefault" yaml:"isDefault"`
}

// Note is a titled free-text document belonging to exactly one subject.
// CreatedAt and UpdatedAt are Unix milliseconds.
type Note struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"`
	SubjectID string `json:"subjectId" yaml:"subjectId"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" yaml:"updatedAt"`
}

// NoteUpdate is a partial update. Nil fields are left untouched.
type NoteUpdate struct {
	Title   *string
	Content *string
}

// DefaultSubjects returns the subjects seeded on first run.
// A fresh slice is returned on every call.
func DefaultSubjects() []Subject {
	return []Subject{
		{ID: "math", Name: "Math", Icon: "📐", IsDefault: true},
		{ID: "english", Name: "English", Icon: "📖", IsDefault: true},
		{ID: "science", Name: "Science", Icon: "🔬", IsDefault: true},
		{ID: "history", Name: "History", Icon: "🏛️", IsDefault: true},
	}
}

// DateHeader renders the first line written into new notes,
// e.g. "📅 Saturday, October 17, 2026".
func DateHeader(t time.Time) string {
	return fmt.Sprintf("📅 %s", t.Format("Monday, January 2, 2006"))
}

// EventType represents the kind of change applied to the state.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Entity kinds carried by Event.Kind.
const (
	KindSubject = "subject"
	KindNote    = "note"
	KindRecord  = "record"
)

// Event represents a change in the state or in the backing store.
type Event struct {
	Type      EventType
	Kind      string
	ID        string
	Timestamp int64 // Unix milliseconds
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s %s", e.Type, e.Kind, e.ID)
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit message)
// down to versioned stores.
const ChangeReasonKey contextKey = "change_reason"
