package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plotstormrc.toml")
	if err := os.WriteFile(path, []byte("auto_draw = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()

	var fired atomic.Int32
	got := make(chan string, 1)
	w.OnChange(func(p string) {
		fired.Add(1)
		select {
		case got <- p:
		default:
		}
	})
	w.Start()

	if err := os.WriteFile(path, []byte("auto_draw = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-got:
		if p != w.Path() {
			t.Errorf("handler path = %q, want %q", p, w.Path())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var fired atomic.Int32
	w.OnChange(func(string) { fired.Add(1) })
	w.Start()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(400 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("handler fired %d times, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var fired atomic.Int32
	w.OnChange(func(string) { fired.Add(1) })
	w.Start()

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("b = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("handler fired %d times for unrelated file", n)
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc.toml")
	w, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error: %v", err)
	}
	if err := w.Close(); err != ErrWatcherClosed {
		t.Errorf("second Close() = %v, want ErrWatcherClosed", err)
	}
}
