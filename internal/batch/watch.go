package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a note must be quiet before it is converted, so
// an editor's create-then-write sequence yields one conversion.
const watchDebounce = 250 * time.Millisecond

// Watch converts every note under dir, then keeps converting notes as they are
// created or modified until ctx is cancelled. Cancellation is not an error.
func (r *Runner) Watch(ctx context.Context, dir string) (*Stats, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return &r.stats, fmt.Errorf("watch needs a directory: %s", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &r.stats, fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watches go in before the initial pass so nothing written in between is lost.
	if err := addDirs(w, dir); err != nil {
		return &r.stats, err
	}
	if _, err := r.Run(ctx, dir); err != nil {
		if ctx.Err() != nil {
			return &r.stats, nil
		}
		return &r.stats, err
	}
	r.log.Info("watching for notes", "dir", dir)

	pending := map[string]time.Time{}
	tick := time.NewTicker(watchDebounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return &r.stats, nil

		case ev, ok := <-w.Events:
			if !ok {
				return &r.stats, nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirs(w, ev.Name); err != nil {
						r.log.Warn("watch failed", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && isNote(ev.Name) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return &r.stats, nil
			}
			r.log.Warn("watcher error", "error", err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < watchDebounce {
					continue
				}
				delete(pending, path)
				r.convertOne(ctx, dir, path)
			}
		}
	}
}

// convertOne processes a single note found by the watcher.
func (r *Runner) convertOne(ctx context.Context, root, path string) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	if r.opts.OutDir != "" && !r.opts.DryRun {
		if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
			r.log.Warn("creating output dir", "error", err)
			return
		}
	}
	r.stats.FilesTotal++
	if err := r.processFile(ctx, path, rel); err != nil {
		r.log.Warn("conversion failed", "file", rel, "error", err)
		r.stats.FilesErrored++
	}
}

// addDirs watches dir and every directory below it.
func addDirs(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.Add(p); err != nil {
				return fmt.Errorf("watching %s: %w", p, err)
			}
		}
		return nil
	})
}

func isNote(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}
