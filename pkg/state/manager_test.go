package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studynotes/pkg/adapters/memory"
	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/state"
	"github.com/aretw0/studynotes/pkg/typed"
)

// fakeClock returns a fixed instant until advanced.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func setupManager(t *testing.T, store *memory.Store, opts ...state.Option) (*state.Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)}
	base := []state.Option{state.WithClock(clock.Now), state.WithIDGenerator(sequentialIDs())}
	m := state.NewManager(store, append(base, opts...)...)
	require.NoError(t, m.Load(context.Background()))
	return m, clock
}

func ptr(s string) *string { return &s }

func TestManager_FreshStartSeedsDefaults(t *testing.T) {
	store := memory.New()
	m, _ := setupManager(t, store)

	select {
	case <-m.Ready():
	default:
		t.Fatal("Ready channel should be closed after Load")
	}
	assert.True(t, m.IsLoaded())

	subjects := m.Subjects()
	require.Len(t, subjects, 4)
	want := []struct{ id, name, icon string }{
		{"math", "Math", "📐"},
		{"english", "English", "📖"},
		{"science", "Science", "🔬"},
		{"history", "History", "🏛️"},
	}
	for i, w := range want {
		assert.Equal(t, w.id, subjects[i].ID)
		assert.Equal(t, w.name, subjects[i].Name)
		assert.Equal(t, w.icon, subjects[i].Icon)
		assert.True(t, subjects[i].IsDefault)
	}
	assert.Empty(t, m.Notes())

	// Defaults are persisted immediately, notes are not.
	raw, err := store.Get(context.Background(), core.SubjectsKey)
	require.NoError(t, err)
	var persisted []core.Subject
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, subjects, persisted)

	_, err = store.Get(context.Background(), core.NotesKey)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestManager_MalformedRecordsTreatedAsAbsent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, core.SubjectsKey, []byte("{not json")))
	require.NoError(t, store.Put(ctx, core.NotesKey, []byte("[[[")))

	m, _ := setupManager(t, store)
	assert.Len(t, m.Subjects(), 4)
	assert.Empty(t, m.Notes())
}

func TestManager_OperationsBeforeLoad(t *testing.T) {
	m := state.NewManager(memory.New())
	ctx := context.Background()

	_, err := m.AddSubject(ctx, "Art", "🎨")
	assert.ErrorIs(t, err, core.ErrNotLoaded)
	_, err = m.AddNote(ctx, "math")
	assert.ErrorIs(t, err, core.ErrNotLoaded)
	assert.ErrorIs(t, m.UpdateNote(ctx, "x", core.NoteUpdate{}), core.ErrNotLoaded)
	assert.ErrorIs(t, m.DeleteNote(ctx, "x"), core.ErrNotLoaded)
	assert.ErrorIs(t, m.DeleteSubject(ctx, "x"), core.ErrNotLoaded)
	assert.ErrorIs(t, m.Reload(ctx), core.ErrNotLoaded)
	assert.False(t, m.IsLoaded())
}

func TestManager_AddSubject(t *testing.T) {
	m, _ := setupManager(t, memory.New())
	ctx := context.Background()

	art, err := m.AddSubject(ctx, "  Art  ", "🎨")
	require.NoError(t, err)
	assert.Equal(t, "Art", art.Name)
	assert.Equal(t, "🎨", art.Icon)
	assert.False(t, art.IsDefault)

	_, err = m.AddSubject(ctx, "", "📁")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = m.AddSubject(ctx, "   \t", "📁")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	subjects := m.Subjects()
	require.Len(t, subjects, 5)
	assert.Equal(t, art, subjects[4], "new subjects are appended")

	music, err := m.AddSubject(ctx, "Music", "")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultIcon, music.Icon)
}

func TestManager_AddSubjectLongName(t *testing.T) {
	m, _ := setupManager(t, memory.New())

	name := strings.Repeat("a", 500)
	s, err := m.AddSubject(context.Background(), name, "🎨")
	require.NoError(t, err)
	assert.Equal(t, name, s.Name)
	assert.Len(t, m.Subjects(), 5)
}

func TestManager_GeneratedIDsAreUnique(t *testing.T) {
	// A generator that repeats itself must not produce duplicate ids.
	calls := 0
	gen := func(prefix string) string {
		calls++
		if calls <= 3 {
			return prefix + "-same"
		}
		return fmt.Sprintf("%s-%d", prefix, calls)
	}
	m := state.NewManager(memory.New(), state.WithIDGenerator(gen))
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	a, err := m.AddNote(ctx, "math")
	require.NoError(t, err)
	b, err := m.AddNote(ctx, "math")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestManager_AddNote(t *testing.T) {
	m, clock := setupManager(t, memory.New())
	ctx := context.Background()

	first, err := m.AddNote(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, core.UntitledNote, first.Title)
	assert.Equal(t, "📅 Saturday, October 17, 2026\n\n", first.Content)
	assert.Equal(t, "math", first.SubjectID)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Equal(t, clock.Now().UnixMilli(), first.CreatedAt)

	second, err := m.AddNote(ctx, "math")
	require.NoError(t, err)

	notes := m.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "new notes are prepended")
	assert.Equal(t, first.ID, notes[1].ID)

	selected, ok := m.SelectedNote()
	require.True(t, ok)
	assert.Equal(t, second.ID, selected.ID)
}

func TestManager_AddDeleteNotesKeepsExactSet(t *testing.T) {
	m, clock := setupManager(t, memory.New())
	ctx := context.Background()

	live := map[string]bool{}
	for i := 0; i < 10; i++ {
		n, err := m.AddNote(ctx, "science")
		require.NoError(t, err)
		live[n.ID] = true
		clock.Advance(time.Millisecond)
		if i%3 == 0 {
			require.NoError(t, m.DeleteNote(ctx, n.ID))
			delete(live, n.ID)
		}
	}
	// Deleting an unknown id is a no-op.
	require.NoError(t, m.DeleteNote(ctx, "missing"))

	seen := map[string]bool{}
	for _, n := range m.Notes() {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
	assert.Equal(t, live, seen)
}

func TestManager_UpdateNote(t *testing.T) {
	m, _ := setupManager(t, memory.New())
	ctx := context.Background()

	n, err := m.AddNote(ctx, "math")
	require.NoError(t, err)

	require.NoError(t, m.UpdateNote(ctx, n.ID, core.NoteUpdate{Title: ptr("Derivatives")}))

	got, ok := m.Note(n.ID)
	require.True(t, ok)
	assert.Equal(t, "Derivatives", got.Title)
	assert.Equal(t, n.Content, got.Content, "content must be untouched")
	assert.GreaterOrEqual(t, got.UpdatedAt, n.UpdatedAt)
	assert.Greater(t, got.UpdatedAt, got.CreatedAt)

	require.NoError(t, m.UpdateNote(ctx, n.ID, core.NoteUpdate{Title: ptr("Limits"), Content: ptr("body")}))
	got, _ = m.Note(n.ID)
	assert.Equal(t, "Limits", got.Title)
	assert.Equal(t, "body", got.Content)

	// Unknown ids are a no-op.
	require.NoError(t, m.UpdateNote(ctx, "missing", core.NoteUpdate{Title: ptr("x")}))
}

func TestManager_NotesForSubjectOrdering(t *testing.T) {
	m, clock := setupManager(t, memory.New())
	ctx := context.Background()

	a, _ := m.AddNote(ctx, "math")
	clock.Advance(time.Second)
	b, _ := m.AddNote(ctx, "math")
	clock.Advance(time.Second)
	_, _ = m.AddNote(ctx, "english")
	clock.Advance(time.Second)
	c, _ := m.AddNote(ctx, "math")

	ids := func(notes []core.Note) []string {
		out := make([]string, len(notes))
		for i, n := range notes {
			out[i] = n.ID
		}
		return out
	}

	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(m.NotesForSubject("math")))

	// Updating moves a note to the front, even without the clock moving.
	require.NoError(t, m.UpdateNote(ctx, a.ID, core.NoteUpdate{Content: ptr("edited")}))
	got := m.NotesForSubject("math")
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].UpdatedAt, got[i].UpdatedAt)
	}

	assert.Empty(t, m.NotesForSubject("history"))
}

func TestManager_NotesForSubjectStableTies(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	notes := []core.Note{
		{ID: "n1", SubjectID: "math", CreatedAt: 10, UpdatedAt: 10},
		{ID: "n2", SubjectID: "math", CreatedAt: 10, UpdatedAt: 20},
		{ID: "n3", SubjectID: "math", CreatedAt: 10, UpdatedAt: 10},
	}
	require.NoError(t, typed.NewRecord[[]core.Note](store, core.NotesKey, nil, nil).Save(ctx, notes))

	m, _ := setupManager(t, store)
	got := m.NotesForSubject("math")
	require.Len(t, got, 3)
	assert.Equal(t, "n2", got[0].ID)
	assert.Equal(t, "n1", got[1].ID)
	assert.Equal(t, "n3", got[2].ID)
}

func TestManager_DeleteSubjectCascades(t *testing.T) {
	m, _ := setupManager(t, memory.New())
	ctx := context.Background()

	m1, _ := m.AddNote(ctx, "math")
	m2, _ := m.AddNote(ctx, "math")
	e1, _ := m.AddNote(ctx, "english")

	require.NoError(t, m.DeleteSubject(ctx, "math"))

	_, ok := m.Subject("math")
	assert.False(t, ok)
	assert.Empty(t, m.NotesForSubject("math"))
	_, ok = m.Note(m1.ID)
	assert.False(t, ok)
	_, ok = m.Note(m2.ID)
	assert.False(t, ok)
	_, ok = m.Note(e1.ID)
	assert.True(t, ok)

	// Unknown subject is a no-op.
	require.NoError(t, m.DeleteSubject(ctx, "missing"))
	assert.Len(t, m.Subjects(), 3)
}

func TestManager_SelectionLifecycle(t *testing.T) {
	m, _ := setupManager(t, memory.New())
	ctx := context.Background()

	m.SelectSubject("math")
	n, err := m.AddNote(ctx, "math")
	require.NoError(t, err)

	id, ok := m.SelectedNoteID()
	require.True(t, ok)
	assert.Equal(t, n.ID, id)

	// Selecting a subject always clears the note selection.
	m.SelectSubject("math")
	_, ok = m.SelectedNoteID()
	assert.False(t, ok)

	m.SelectNote(n.ID)
	require.NoError(t, m.DeleteNote(ctx, n.ID))
	_, ok = m.SelectedNoteID()
	assert.False(t, ok, "deleting the selected note clears the note selection")

	n2, _ := m.AddNote(ctx, "math")
	subject, ok := m.SelectedSubject()
	require.True(t, ok)
	assert.Equal(t, "Math", subject.Name)

	require.NoError(t, m.DeleteSubject(ctx, "math"))
	_, ok = m.SelectedSubjectID()
	assert.False(t, ok)
	_, ok = m.SelectedNoteID()
	assert.False(t, ok)
	_, ok = m.Note(n2.ID)
	assert.False(t, ok)
}

func TestManager_SelectedLookupsResolveToNone(t *testing.T) {
	m, _ := setupManager(t, memory.New())

	m.SelectSubject("does-not-exist")
	_, ok := m.SelectedSubject()
	assert.False(t, ok)

	m.SelectNote("ghost")
	_, ok = m.SelectedNote()
	assert.False(t, ok)

	m.ClearSelection()
	_, ok = m.SelectedSubjectID()
	assert.False(t, ok)
}

func TestManager_RoundTripAfterRestart(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	m, clock := setupManager(t, store)
	_, err := m.AddSubject(ctx, "Art", "🎨")
	require.NoError(t, err)
	n, _ := m.AddNote(ctx, "math")
	clock.Advance(time.Minute)
	_, _ = m.AddNote(ctx, "english")
	require.NoError(t, m.UpdateNote(ctx, n.ID, core.NoteUpdate{Title: ptr("Derivatives")}))

	restarted, _ := setupManager(t, store)
	assert.Equal(t, m.Subjects(), restarted.Subjects())
	assert.Equal(t, m.Notes(), restarted.Notes())
}

func TestManager_StorageFailureKeepsMemoryState(t *testing.T) {
	store := memory.New()
	m, _ := setupManager(t, store)
	ctx := context.Background()

	quota := errors.New("quota exceeded")
	store.FailPut(core.NotesKey, quota)

	n, err := m.AddNote(ctx, "math")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorageFailure)
	assert.ErrorIs(t, err, quota)

	// Memory and store diverge until the next successful write.
	_, ok := m.Note(n.ID)
	assert.True(t, ok)
	_, err = store.Get(ctx, core.NotesKey)
	assert.ErrorIs(t, err, core.ErrNotFound)

	store.FailPut(core.NotesKey, nil)
	require.NoError(t, m.UpdateNote(ctx, n.ID, core.NoteUpdate{Title: ptr("Recovered")}))

	restarted, _ := setupManager(t, store)
	got, ok := restarted.Note(n.ID)
	require.True(t, ok)
	assert.Equal(t, "Recovered", got.Title)
}

func TestManager_ChangeHook(t *testing.T) {
	var events []core.Event
	m, _ := setupManager(t, memory.New(), state.WithChangeHook(func(e core.Event) {
		events = append(events, e)
	}))
	ctx := context.Background()

	n, _ := m.AddNote(ctx, "math")
	_ = m.UpdateNote(ctx, n.ID, core.NoteUpdate{Title: ptr("t")})
	_ = m.DeleteSubject(ctx, "math")

	require.Len(t, events, 4)
	assert.Equal(t, core.Event{Type: core.EventCreate, Kind: core.KindNote, ID: n.ID, Timestamp: events[0].Timestamp}, events[0])
	assert.Equal(t, core.EventModify, events[1].Type)
	assert.Equal(t, core.EventDelete, events[2].Type)
	assert.Equal(t, core.KindNote, events[2].Kind)
	assert.Equal(t, core.KindSubject, events[3].Kind)
}

func TestManager_ChangeHookFiresOnFailedWrite(t *testing.T) {
	store := memory.New()
	var events []core.Event
	m, _ := setupManager(t, store, state.WithChangeHook(func(e core.Event) {
		events = append(events, e)
	}))
	store.FailPut(core.NotesKey, errors.New("disk full"))

	n, err := m.AddNote(context.Background(), "math")
	require.ErrorIs(t, err, core.ErrStorageFailure)

	_, applied := m.Note(n.ID)
	require.True(t, applied)
	require.Len(t, events, 1)
	assert.Equal(t, n.ID, events[0].ID)
}

func TestManager_Reload(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	m, _ := setupManager(t, store)

	other, _ := setupManager(t, store)
	_, err := other.AddSubject(ctx, "Art", "🎨")
	require.NoError(t, err)

	assert.Len(t, m.Subjects(), 4)
	require.NoError(t, m.Reload(ctx))
	assert.Len(t, m.Subjects(), 5)
}

func TestManager_YAMLCodec(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	m, _ := setupManager(t, store, state.WithCodec(typed.YAMLCodec{}))
	_, err := m.AddNote(ctx, "history")
	require.NoError(t, err)

	raw, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "subjectId: history")

	restarted, _ := setupManager(t, store, state.WithCodec(typed.YAMLCodec{}))
	assert.Equal(t, m.Notes(), restarted.Notes())
}

func TestManager_State(t *testing.T) {
	m, _ := setupManager(t, memory.New())
	st, ok := m.State().(state.ManagerState)
	require.True(t, ok)
	assert.True(t, st.Loaded)
	assert.Equal(t, 4, st.Subjects)
	assert.Equal(t, "memory-store", st.StoreType)
	assert.Equal(t, "json", st.Format)
}
