package watcher

import (
	"crypto/sha256"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"repolens/internal/shared/observability"
	"repolens/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

// Watcher follows a set of analysis result files and reports them, debounced,
// once their content actually changes. Parent directories are watched rather
// than the files so editor rename-and-replace saves are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	limiter   *util.Limiter
	onChange  func([]string) error

	targets    map[string]bool
	hashes     map[string][sha256.Size]byte
	callbackMu sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

// NewWatcher returns a watcher that calls onChange with the changed files at
// most once per debounce window, throttled by limiter (nil means unlimited).
func NewWatcher(debounce time.Duration, limiter *util.Limiter, onChange func([]string) error) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if limiter == nil {
		limiter = util.NewLimiter(0, 1)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		limiter:   limiter,
		onChange:  onChange,
		targets:   make(map[string]bool),
		hashes:    make(map[string][sha256.Size]byte),
		pending:   make(map[string]struct{}),
	}, nil
}

// Watch starts following files. Each file's current content becomes the
// baseline, so only later edits are reported.
func (w *Watcher) Watch(files []string) error {
	if len(files) == 0 {
		return errors.New("no files to watch")
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		w.targets[abs] = true
		if sum, ok := hashFile(abs); ok {
			w.hashes[abs] = sum
		}
		dirs[filepath.Dir(abs)] = true
	}

	for _, dir := range util.SortedStringKeys(dirs) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			path := filepath.Clean(event.Name)
			if !w.targets[path] {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(path)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.closed {
		return
	}

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	if !w.limiter.Allow() {
		observability.WatcherReloadsTotal.WithLabelValues("throttled").Inc()
		w.pendingMu.Lock()
		if !w.closed && len(w.pending) > 0 {
			w.timer = time.AfterFunc(w.debounce, w.flushChanges)
		}
		w.pendingMu.Unlock()
		return
	}

	w.pendingMu.Lock()
	candidates := make([]string, 0, len(w.pending))
	for path := range w.pending {
		candidates = append(candidates, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()

	changed := make([]string, 0, len(candidates))
	for _, path := range candidates {
		sum, ok := hashFile(path)
		if !ok {
			// Mid-save or removed; the next event carries the final content.
			continue
		}
		if prev, seen := w.hashes[path]; seen && prev == sum {
			continue
		}
		w.hashes[path] = sum
		changed = append(changed, path)
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	if err := w.onChange(changed); err != nil {
		observability.WatcherReloadsTotal.WithLabelValues("error").Inc()
		slog.Warn("reload failed", "paths", changed, "error", err)
		return
	}
	observability.WatcherReloadsTotal.WithLabelValues("ok").Inc()
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func hashFile(path string) ([sha256.Size]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}
