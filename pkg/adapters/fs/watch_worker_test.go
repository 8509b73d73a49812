package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studynotes/pkg/core"
)

// Shutting down while a post-git reconcile is still trying to deliver must
// close the events channel only after the reconcile has returned.
func TestWatchWorker_ShutdownWaitsForReconcile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore(Config{Path: t.TempDir(), AutoInit: true})
	require.NoError(t, store.Initialize(ctx))

	// Unbuffered and unread: the reconcile blocks in deliver.
	events := make(chan core.Event)
	w := newWatchWorker(store, "*", events)
	w.closeOnExit = true
	require.NoError(t, w.Start(ctx))
	require.Eventually(t, func() bool { return watcherActive(store) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(store.Path, "studynotes-notes.json"), []byte(`[]`), 0644))
	w.reconcileAfterGitUnlock(ctx)

	cancel()

	closed := make(chan struct{})
	go func() {
		for range events {
		}
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("events channel was not closed after shutdown")
	}

	assert.Eventually(t, func() bool { return !watcherActive(store) }, 2*time.Second, 10*time.Millisecond)
}
