package state

import (
	"github.com/aretw0/introspection"
)

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Loaded            bool   `json:"loaded"`
	Subjects          int    `json:"subjects"`
	Notes             int    `json:"notes"`
	SelectedSubjectID string `json:"selected_subject_id,omitempty"`
	SelectedNoteID    string `json:"selected_note_id,omitempty"`
	StoreType         string `json:"store_type"`
	Format            string `json:"format"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storeType := "unknown"
	if m.store != nil {
		storeType = "store"
		if comp, ok := m.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}

	format := "json"
	if m.codec != nil {
		format = m.codec.Name()
	}

	return ManagerState{
		Loaded:            m.loaded,
		Subjects:          len(m.subjects),
		Notes:             len(m.notes),
		SelectedSubjectID: m.selectedSubject,
		SelectedNoteID:    m.selectedNote,
		StoreType:         storeType,
		Format:            format,
	}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)
