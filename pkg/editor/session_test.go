package editor_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studynotes/pkg/adapters/memory"
	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/editor"
	"github.com/aretw0/studynotes/pkg/state"
)

type fixture struct {
	store   *memory.Store
	mgr     *state.Manager
	modifys atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New()}
	f.mgr = state.NewManager(f.store, state.WithChangeHook(func(e core.Event) {
		if e.Kind == core.KindNote && e.Type == core.EventModify {
			f.modifys.Add(1)
		}
	}))
	require.NoError(t, f.mgr.Load(context.Background()))
	return f
}

func (f *fixture) addNote(t *testing.T) core.Note {
	t.Helper()
	n, err := f.mgr.AddNote(context.Background(), "math")
	require.NoError(t, err)
	return n
}

func fast(opts ...editor.Option) []editor.Option {
	return append([]editor.Option{
		editor.WithCommitDelay(30 * time.Millisecond),
		editor.WithSavedDuration(80 * time.Millisecond),
	}, opts...)
}

func TestSession_SwitchLoadsBuffers(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	s := editor.NewSession(f.mgr, fast()...)
	defer s.Close()

	require.NoError(t, s.Switch(n.ID))
	assert.Equal(t, n.ID, s.NoteID())
	assert.Equal(t, core.UntitledNote, s.Title())
	assert.Equal(t, n.Content, s.Content())

	err := s.Switch("note-missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, s.NoteID())

	assert.ErrorIs(t, s.SetTitle("x"), core.ErrNotFound, "editing without a note")
}

func TestSession_BurstCommitsOnce(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	s := editor.NewSession(f.mgr, fast()...)
	defer s.Close()
	require.NoError(t, s.Switch(n.ID))

	for _, v := range []string{"L", "Li", "Lim", "Limits"} {
		require.NoError(t, s.SetTitle(v))
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "Limits", s.Title(), "buffer updates immediately")
	assert.True(t, s.Pending())

	stored, _ := f.mgr.Note(n.ID)
	assert.Equal(t, core.UntitledNote, stored.Title, "manager untouched during quiet period")

	assert.Eventually(t, func() bool {
		got, _ := f.mgr.Note(n.ID)
		return got.Title == "Limits"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), f.modifys.Load())
	assert.True(t, s.Saved())
	assert.False(t, s.Pending())
}

func TestSession_FieldsHaveIndependentTimers(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	s := editor.NewSession(f.mgr, fast()...)
	defer s.Close()
	require.NoError(t, s.Switch(n.ID))

	require.NoError(t, s.SetTitle("Derivatives"))
	require.NoError(t, s.SetContent("d/dx x^2 = 2x"))

	assert.Eventually(t, func() bool {
		got, _ := f.mgr.Note(n.ID)
		return got.Title == "Derivatives" && got.Content == "d/dx x^2 = 2x"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), f.modifys.Load())
}

func TestSession_SavedFlagExpires(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	var mu sync.Mutex
	var transitions []bool
	s := editor.NewSession(f.mgr, fast(editor.OnSaved(func(up bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, up)
	}))...)
	defer s.Close()
	require.NoError(t, s.Switch(n.ID))

	require.NoError(t, s.SetContent("body"))
	assert.Eventually(t, s.Saved, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !s.Saved() }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestSession_SwitchDiscardsPendingEdits(t *testing.T) {
	f := newFixture(t)
	first := f.addNote(t)
	second := f.addNote(t)

	s := editor.NewSession(f.mgr, editor.WithCommitDelay(50*time.Millisecond))
	defer s.Close()
	require.NoError(t, s.Switch(first.ID))

	require.NoError(t, s.SetTitle("never saved"))
	require.NoError(t, s.Switch(second.ID))

	time.Sleep(120 * time.Millisecond)
	got, _ := f.mgr.Note(first.ID)
	assert.Equal(t, core.UntitledNote, got.Title)
	assert.Equal(t, int32(0), f.modifys.Load())
}

func TestSession_Flush(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	s := editor.NewSession(f.mgr, editor.WithCommitDelay(time.Hour))
	defer s.Close()
	require.NoError(t, s.Switch(n.ID))

	require.NoError(t, s.SetTitle("Integrals"))
	require.NoError(t, s.SetContent("area under the curve"))
	require.NoError(t, s.Flush(context.Background()))

	got, _ := f.mgr.Note(n.ID)
	assert.Equal(t, "Integrals", got.Title)
	assert.Equal(t, "area under the curve", got.Content)
	assert.Equal(t, int32(1), f.modifys.Load(), "flush commits both fields at once")
	assert.False(t, s.Pending())

	require.NoError(t, s.Flush(context.Background()), "nothing pending")
	assert.Equal(t, int32(1), f.modifys.Load())
}

func TestSession_CommitErrorsReachHook(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	errs := make(chan error, 1)
	s := editor.NewSession(f.mgr, fast(editor.OnError(func(err error) { errs <- err }))...)
	defer s.Close()
	require.NoError(t, s.Switch(n.ID))

	f.store.FailPut(core.NotesKey, errors.New("quota exceeded"))
	require.NoError(t, s.SetContent("lost?"))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, core.ErrStorageFailure)
	case <-time.After(time.Second):
		t.Fatal("expected commit error")
	}
	assert.False(t, s.Saved())

	// The in-memory note still carries the edit.
	got, _ := f.mgr.Note(n.ID)
	assert.Equal(t, "lost?", got.Content)
}

func TestSession_Close(t *testing.T) {
	f := newFixture(t)
	n := f.addNote(t)

	s := editor.NewSession(f.mgr, fast()...)
	require.NoError(t, s.Switch(n.ID))
	require.NoError(t, s.SetTitle("dropped"))
	s.Close()

	time.Sleep(60 * time.Millisecond)
	got, _ := f.mgr.Note(n.ID)
	assert.Equal(t, core.UntitledNote, got.Title)
	assert.Error(t, s.SetTitle("after close"))
	assert.Error(t, s.Switch(n.ID))
}
