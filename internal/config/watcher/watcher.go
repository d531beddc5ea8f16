// Package watcher provides live reload for parameter files.
//
// A Watcher monitors a configuration file with fsnotify and triggers a
// reload callback when it changes. Rapid bursts of write events, as
// produced by most editors on save, are debounced into a single
// reload.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when operating on a closed watcher.
var ErrWatcherClosed = errors.New("watcher: closed")

// Handler is called after the watched file changed and the debounce
// window expired.
type Handler func(path string)

// Watcher monitors a single configuration file.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	path     string
	dir      string
	debounce time.Duration
	handlers []Handler

	timer  *time.Timer
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window. The default is 100ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for the given file. The parent directory is
// watched so the file may not exist yet; a later create still fires.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string { return w.path }

// OnChange registers a reload handler.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins processing events.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// schedule arms the debounce timer, extending it on repeated events.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	path := w.path
	w.mu.Unlock()

	for _, h := range handlers {
		w.call(h, path)
	}
}

// call invokes a handler with panic recovery so one bad handler does
// not kill the watch loop.
func (w *Watcher) call(h Handler, path string) {
	defer func() { _ = recover() }()
	h(path)
}
