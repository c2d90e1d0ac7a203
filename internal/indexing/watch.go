package indexing

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches bursts of filesystem events (editors often
// write a file as create+write+rename) into a single reconciliation,
// the same debounce shape as the teacher's debounced_rebuilder.go.
const debounceWindow = 500 * time.Millisecond

// Watch runs Reconcile once immediately, then again every time the
// filesystem under root settles after a burst of changes, until ctx is
// canceled. It is the supplemental watch mode (not present in the
// baseline spec) layered on top of the same Reconcile used by one-shot
// indexing.
func (ix *Indexer) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}

	if _, err := ix.Reconcile(ctx, root); err != nil {
		ix.log.Warn("watch: initial reconcile failed", "error", err)
	}

	var timer *time.Timer
	reset := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				_ = watcher.Add(event.Name) // best-effort; new dirs may fail harmlessly
			}
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, func() {
					select {
					case reset <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ix.log.Warn("watch: fsnotify error", "error", err)
		case <-reset:
			if _, err := ix.Reconcile(ctx, root); err != nil {
				ix.log.Warn("watch: reconcile failed", "error", err)
			}
		}
	}
}

// addRecursive registers watches on root and every non-dotfile
// subdirectory beneath it; fsnotify does not recurse on its own.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
