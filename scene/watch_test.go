package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsArtifactWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "ep01-s01.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-w.Events:
		if got != path {
			t.Fatalf("event = %q, want %q", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for artifact write")
	}
}

func TestWatcherCloseWithUndrainedEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	// more distinct artifacts than the Events buffer holds, never drained,
	// so the forwarding goroutine ends up blocked mid-send
	for i := 0; i < 2*cap(w.Events); i++ {
		path := filepath.Join(dir, fmt.Sprintf("ep01-s%02d.json", i))
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	time.Sleep(200 * time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// the goroutine owns the channel and closes it on exit
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("Events never closed after Close")
		}
	}
}
