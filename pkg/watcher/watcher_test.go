package watcher_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/chemoscope/pkg/watcher"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherDetectsChangeInPollingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	writeTestFile(t, path, "condicao;replica;composto;concentracao\n")

	w, err := watcher.New(path,
		watcher.WithForcePoll(true),
		watcher.WithPollInterval(20*time.Millisecond),
		watcher.WithDebounceDuration(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("force-poll watcher not in polling mode")
	}

	// mtime granularity can be coarse; grow the file so size changes too
	time.Sleep(30 * time.Millisecond)
	writeTestFile(t, path, "condicao;replica;composto;concentracao\nctrl;1;A;1,0\n")

	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification within 2s")
	}
}

func TestWatcherStartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	writeTestFile(t, path, "x\n")

	w, err := watcher.New(path, watcher.WithForcePoll(true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); !errors.Is(err, watcher.ErrAlreadyStarted) {
		t.Errorf("got %v, want ErrAlreadyStarted", err)
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	writeTestFile(t, path, "x\n")

	w, err := watcher.New(path, watcher.WithForcePoll(true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("watcher still started after Stop")
	}
}

func TestWatcherOnChangeCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	writeTestFile(t, path, "a\n")

	changed := make(chan struct{}, 1)
	w, err := watcher.New(path,
		watcher.WithForcePoll(true),
		watcher.WithPollInterval(20*time.Millisecond),
		watcher.WithDebounceDuration(10*time.Millisecond),
		watcher.WithOnChange(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	writeTestFile(t, path, "a\nb\n")

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange not invoked within 2s")
	}
}

func TestWatcherPathIsAbsolute(t *testing.T) {
	w, err := watcher.New("obs.csv")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("path %q not absolute", w.Path())
	}
}
