package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/markwrite/pkg/core"
)

// watchDebounce coalesces the burst of events a single save produces
// (create temp, write, rename).
const watchDebounce = 50 * time.Millisecond

// Watch reports changes to the file of key made by anything other than this
// repository: another process, an editor, a git checkout. The channel is
// closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, key string) (<-chan core.Event, error) {
	if _, err := r.pathFor(key); err != nil {
		return nil, err
	}

	events := make(chan core.Event)
	w := newWatchWorker(r, key, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		r.reportError(fmt.Errorf("watcher shutdown: %w", err))
	}))

	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	key       string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, key string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		key:        key,
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

	// The directory is watched rather than the file: atomic writes replace
	// the file, which would silently end a watch on the old inode.
	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}
	if w.repo.config.Versioning {
		_ = watcher.Add(filepath.Join(w.repo.Path, ".git"))
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(watchDebounce)
	w.repo.setWatcherActive(true)

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
			"key":               w.key,
		}
	})
}

// handleGitLockEvent tracks .git/index.lock so the watcher stays quiet while
// git rewrites the working tree.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked bool) (handled bool, locked bool) {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, gitLocked
	}

	if event.Has(fsnotify.Create) {
		w.repo.logDebug("git operation detected, pausing watcher")
		return true, true
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.repo.logDebug("git operation finished, reconciling")
		return true, false
	}
	return true, gitLocked
}

// reconcileAfterGitUnlock checks the record once git releases its lock, since
// events that happened meanwhile were skipped.
func (w *watchWorker) reconcileAfterGitUnlock(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		if event, changed := w.repo.reconcile(w.key); changed {
			w.sendEvent(ctx, event)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.repo.reportError(fmt.Errorf("reconcile panic: %w", err))
	}))
}

func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.repo.logDebug("event received", "name", event.Name, "op", event.Op.String())

	if isTempFile(event.Name) || filepath.Base(event.Name) != w.repo.FileName(w.key) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	// Classification happens when the debounce delay expires so the file is
	// inspected once it has settled.
	w.debouncer.add(core.Event{ID: w.key}, func(core.Event) {
		if e, changed := w.repo.reconcile(w.key); changed {
			w.sendEvent(ctx, e)
		}
	})
	return true
}

func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	defer func() {
		// The events channel is closed once the worker stops.
		_ = recover()
	}()
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			logger := w.repo.config.Logger
			if logger == nil {
				err = panicErr
				return
			}
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	var gitLocked bool
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
			if w.repo.config.Logger != nil {
				w.repo.config.Logger.Error("fsnotify error", "error", wErr)
			}
			w.repo.reportError(wErr)
		}
	}
}
