// Package watcher reloads a schema file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"

	"github.com/DeusData/cypher-builder/internal/schema"
)

const (
	defaultDebounce = 100 * time.Millisecond
	defaultInterval = 5 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// ReloadFunc receives every successfully parsed new version of the file.
type ReloadFunc func(sc *schema.Schema)

// Watcher follows one schema file. fsnotify events on the parent
// directory trigger a reload after Debounce; a poll every Interval catches
// events the platform dropped. Content that did not change is not
// reloaded, and a file that fails to parse keeps the previous schema.
type Watcher struct {
	Debounce time.Duration
	Interval time.Duration

	path   string
	reload ReloadFunc

	mu       sync.Mutex
	snapshot fileSnapshot
	hash     uint64
	loaded   bool
}

// New creates a Watcher for path.
func New(path string, fn ReloadFunc) *Watcher {
	return &Watcher{
		Debounce: defaultDebounce,
		Interval: defaultInterval,
		path:     filepath.Clean(path),
		reload:   fn,
	}
}

// Load reads the file once and hands it to the reload callback.
func (w *Watcher) Load() error {
	changed, err := w.check()
	if err != nil {
		return err
	}
	if !changed {
		slog.Debug("watcher.unchanged", "path", w.path)
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer fw.Close()
	// Editors replace files by rename, so watch the directory.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	debounce := time.NewTimer(w.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op == fsnotify.Chmod {
				continue
			}
			debounce.Reset(w.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher.fsnotify", "path", w.path, "err", err)
		case <-debounce.C:
			w.poll()
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	if _, err := w.check(); err != nil {
		slog.Warn("watcher.reload", "path", w.path, "err", err)
	}
}

// check reloads the file when its size, mtime and content hash say it
// changed. It reports whether the callback ran.
func (w *Watcher) check() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		return false, fmt.Errorf("stat schema: %w", err)
	}
	snap := fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	if w.loaded && snapshotEqual(w.snapshot, snap) {
		return false, nil
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("read schema: %w", err)
	}
	h := xxh3.Hash(data)
	if w.loaded && h == w.hash {
		w.snapshot = snap
		return false, nil
	}
	sc, err := schema.Parse(data)
	if err != nil {
		// keep the old snapshot so the next poll retries
		return false, fmt.Errorf("parse %s: %w", w.path, err)
	}

	w.snapshot, w.hash, w.loaded = snap, h, true
	sum := sc.Summarize()
	slog.Info("watcher.changed", "path", w.path, "labels", sum.Labels, "relationships", sum.Relationships)
	w.reload(sc)
	return true, nil
}

func snapshotEqual(a, b fileSnapshot) bool {
	return a.modTime.Equal(b.modTime) && a.size == b.size
}
