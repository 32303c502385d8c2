package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a watcher waits after the last change before
// reporting it.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to one data file. It watches the file's directory
// because editors often replace a file instead of writing it in place.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan struct{}

	// debounce rapid file changes
	Debounce time.Duration
}

// NewWatcher creates a watcher for path. Call Run to start it.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		watcher:  fw,
		changes:  make(chan struct{}, 1),
		Debounce: DefaultDebounce,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changes delivers one value per settled burst of changes. A pending
// notification that nobody received yet absorbs later ones.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Run processes file system events until ctx is done or the watcher is
// closed. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// Only notify on content changes (not chmod, etc)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			// Errors are logged but don't stop the watcher
			log.Printf("warning: watching %s: %v", w.path, err)
		}
	}
}

// Close stops the watcher. Run returns soon after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
