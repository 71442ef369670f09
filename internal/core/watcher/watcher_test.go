package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"repolens/internal/shared/util"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher_RejectsEmptyFileList(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(nil); err == nil {
		t.Fatal("expected error when no files are given")
	}
}

func TestWatcher_ReportsContentChanges(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "analysis.json")
	content := []byte(`{"repo_url":"https://github.com/a/b","dependency_graph":{}}`)
	if err := os.WriteFile(target, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 10)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) error {
		changed <- paths
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	// Same bytes as the baseline: nothing to report.
	if err := os.WriteFile(target, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("unexpected change for identical content: %v", paths)
	case <-time.After(250 * time.Millisecond):
	}

	// Sibling files are ignored.
	if err := os.WriteFile(filepath.Join(tmpDir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("unexpected change for untracked file: %v", paths)
	case <-time.After(250 * time.Millisecond):
	}

	updated := []byte(`{"repo_url":"https://github.com/a/b","dependency_graph":{"a.py":["b.py"]}}`)
	if err := os.WriteFile(target, updated, 0o644); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(target)
	select {
	case paths := <-changed:
		if len(paths) != 1 || paths[0] != want {
			t.Fatalf("expected [%s], got %v", want, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for content change")
	}
}

func TestWatcher_RenameReplaceTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "analysis.json")
	if err := os.WriteFile(target, []byte(`{"a.py":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 10)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) error {
		changed <- paths
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}

	tmp := filepath.Join(tmpDir, "analysis.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"a.py":["b.py"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rename-replace event")
	}
}

func TestWatcher_ThrottledReloadIsRetried(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "analysis.json")
	if err := os.WriteFile(target, []byte(`{"a.py":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	limiter := util.NewLimiter(5, 1)
	if !limiter.Allow() {
		t.Fatal("expected burst token")
	}

	changed := make(chan []string, 10)
	w, err := NewWatcher(20*time.Millisecond, limiter, func(paths []string) error {
		changed <- paths
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte(`{"a.py":["c.py"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected throttled reload to be delivered once a token is available")
	}
}
