// Package fswatch provides recursive directory change notification
// built on fsnotify, with event debouncing so a burst of writes
// surfaces as a single signal.
package fswatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event
// before signalling a change.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a directory tree and emits a signal when anything
// under it changes.
type Watcher struct {
	root     string
	debounce time.Duration
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period required before a change signal.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for the given root directory.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts watching and returns a channel that receives one value
// per debounced batch of changes. The channel closes when the context
// is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := addRecursive(fsw, w.root); err != nil {
		fsw.Close() //nolint:errcheck
		return nil, err
	}

	signals := make(chan struct{}, 1)
	go w.loop(ctx, fsw, signals)
	return signals, nil
}

// loop coalesces raw events into debounced signals.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, signals chan<- struct{}) {
	defer close(signals)
	defer fsw.Close() //nolint:errcheck

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if isHidden(event.Name) {
				continue
			}
			// New directories need their own watch so nested
			// changes keep arriving.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						logger.Debug("Cannot watch %s: %v", event.Name, err)
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)

		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case signals <- struct{}{}:
			default:
				// A signal is already pending; the consumer will
				// pick up this batch with it.
			}
		}
	}
}

// addRecursive registers every non-hidden directory under root.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any path element starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
