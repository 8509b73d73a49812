package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/debounce"
)

type watchWorker struct {
	*worker.BaseWorker
	store       *Store
	pattern     string
	events      chan<- core.Event
	closeOnExit bool
	watcher     *fsnotify.Watcher
	pending     *debounce.Group[string]
	cancel      context.CancelFunc
	reconciling sync.WaitGroup
}

func newWatchWorker(store *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Path, err)
	}

	// Best effort: only versioned vaults have a .git directory.
	_ = watcher.Add(filepath.Join(w.store.Path, ".git"))

	w.watcher = watcher
	w.pending = debounce.NewGroup[string](watchDelay)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// handleGitLockEvent processes .git/index.lock events (git operations pause/resume).
// handled is false for every other event.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked bool) (handled bool, locked bool) {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, gitLocked
	}

	switch {
	case event.Has(fsnotify.Create):
		w.store.logger().Debug("git operations detected, pausing watcher")
		return true, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.store.logger().Debug("git operations finished, reconciling")
		return true, false
	}
	return true, gitLocked
}

// reconcileAfterGitUnlock picks up changes that arrived while git held the lock.
// run waits for it before closing the events channel.
func (w *watchWorker) reconcileAfterGitUnlock(ctx context.Context) {
	w.reconciling.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer w.reconciling.Done()
		events, err := w.store.Reconcile(ctx, w.pattern)
		if err != nil {
			w.store.logger().Error("reconcile failed", "error", err)
			return err
		}
		for _, e := range events {
			w.deliver(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.reportError(fmt.Errorf("reconcile: %w", err))
	}))
}

// processFilesystemEvent filters an fsnotify event down to a record key and
// schedules its classification once the key has been quiet for watchDelay.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.store.logger().Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.store.Path) {
		return false
	}

	key, ok := w.store.keyFor(filepath.Base(event.Name))
	if !ok || !matchKey(w.pattern, key) {
		return false
	}

	w.pending.Trigger(key, func() {
		if e, ok := w.store.classify(key); ok {
			w.deliver(ctx, e)
		}
	})
	return true
}

// deliver sends e unless the worker is shutting down.
func (w *watchWorker) deliver(ctx context.Context, e core.Event) {
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

func (w *watchWorker) reportError(err error) {
	if w.store.config.ErrorHandler != nil {
		w.store.config.ErrorHandler(err)
		return
	}
	w.store.logger().Error("watcher error", "error", err)
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)

			// Stack traces only when debug logging is on.
			logger := w.store.logger()
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// Unblock senders, then wait for every one of them before closing.
	if w.cancel != nil {
		w.cancel()
	}
	drained := w.pending.StopAndWait(5 * time.Second)
	w.reconciling.Wait()
	if w.closeOnExit {
		if drained {
			close(w.events)
		} else {
			w.store.logger().Error("watcher classifications still running, leaving events channel open")
		}
	}

	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	gitLocked := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, locked := w.handleGitLockEvent(event, gitLocked); handled {
				wasLocked := gitLocked
				gitLocked = locked
				if wasLocked && !gitLocked {
					w.reconcileAfterGitUnlock(ctx)
				}
				continue
			}

			if gitLocked {
				continue
			}

			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.logger().Error("fsnotify error", "error", wErr)
			w.reportError(wErr)
		}
	}
}
