// Package watcher watches directories for Java source changes and emits
// debounced per-file events, so a save that touches a file several times in
// quick succession triggers one re-analysis.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	Create EventOp = iota
	Write
	Remove
	Rename
)

// String returns the string representation of EventOp.
func (op EventOp) String() string {
	switch op {
	case Create:
		return "Create"
	case Write:
		return "Write"
	case Remove:
		return "Remove"
	case Rename:
		return "Rename"
	default:
		return "Unknown"
	}
}

// Event represents a change to one watched Java source file.
type Event struct {
	Path string
	Op   EventOp
	Time time.Time
}

// Config holds configuration for the file system watcher.
type Config struct {
	// Paths are the files or directory roots to watch.
	Paths []string
	// ExcludeDirs names directories skipped during the recursive walk
	// (matched against the base name, e.g. "target" or ".git").
	ExcludeDirs []string
	// Debounce is the quiet window per path before an event is emitted.
	// Zero means the default.
	Debounce time.Duration
}

const defaultDebounce = 300 * time.Millisecond

// Watcher watches paths for Java source changes and emits debounced events.
type Watcher struct {
	cfg    Config
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	closed bool
}

// NewWatcher creates a new file system watcher with the given configuration.
func NewWatcher(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Watcher{cfg: cfg}
}

// Start begins watching configured paths and returns a channel of debounced
// events. The channel is closed when the context is cancelled.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	for _, root := range w.cfg.Paths {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	out := make(chan Event, 100)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// relevant reports whether a path is a Java source file.
func relevant(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

func (w *Watcher) excluded(dir string) bool {
	base := filepath.Base(dir)
	for _, name := range w.cfg.ExcludeDirs {
		if base == name {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watch the containing directory; fsnotify cannot watch single
		// files reliably across editors that replace on save.
		return w.fsw.Add(filepath.Dir(root))
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !info.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	// Debounce state: map from path to pending event and timer.
	type pending struct {
		event Event
		timer *time.Timer
	}
	pendingEvents := make(map[string]*pending)
	var mu sync.Mutex

	emit := func(evt Event) {
		select {
		case out <- evt:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, p := range pendingEvents {
				p.timer.Stop()
			}
			mu.Unlock()
			return

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}

			op, valid := convertOp(fsEvent.Op)
			if !valid {
				continue
			}

			// A created directory joins the watch set; everything else is
			// filtered down to Java sources.
			if op == Create {
				if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fsEvent.Name)
					continue
				}
			}
			if !relevant(fsEvent.Name) {
				continue
			}

			evt := Event{
				Path: fsEvent.Name,
				Op:   op,
				Time: time.Now(),
			}

			// Debounce: reset the timer for this path.
			path := fsEvent.Name
			mu.Lock()
			if p, exists := pendingEvents[path]; exists {
				p.timer.Stop()
				p.event = evt
			} else {
				p := &pending{event: evt}
				pendingEvents[path] = p
			}
			p := pendingEvents[path]
			p.timer = time.AfterFunc(w.cfg.Debounce, func() {
				mu.Lock()
				e := pendingEvents[path]
				delete(pendingEvents, path)
				mu.Unlock()
				if e != nil {
					emit(e.event)
				}
			})
			mu.Unlock()

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Errors are transient; keep watching.
		}
	}
}

func convertOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return 0, false
	}
}
