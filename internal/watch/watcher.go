// Package watch owns the daemon's filesystem watch: one recursive
// fsnotify handle per process, a debounce state machine that coalesces
// raw event bursts, and the re-snapshot/compare/broadcast cycle.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps an fsnotify watcher with recursive directory
// coverage. fsnotify watches are per-directory, so the whole tree is
// added up front and directories created later are added as their
// create events arrive.
type Watcher struct {
	inner         *fsnotify.Watcher
	root          string
	includeHidden bool
	events        chan struct{}
	errors        chan error
	done          chan struct{}
	wg            sync.WaitGroup
}

// NewWatcher creates a recursive watch rooted at root and starts its
// forwarding goroutine.
func NewWatcher(root string, includeHidden bool) (*Watcher, error) {
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		inner:         inner,
		root:          root,
		includeHidden: includeHidden,
		events:        make(chan struct{}, 64),
		errors:        make(chan error, 8),
		done:          make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		inner.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.forward()
	return w, nil
}

// Events signals raw filesystem changes. The payload carries no
// detail: any signal means "something changed, re-snapshot after the
// quiet period".
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Errors reports watch-handle failures.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close tears down the watch handle and waits for the forwarding
// goroutine to exit.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.inner.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addRecursive(dir string) error {
	if err := w.inner.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || w.hidden(entry.Name()) {
			continue
		}
		if err := w.addRecursive(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) forward() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.inner.Events:
			if !ok {
				return
			}
			if w.hidden(filepath.Base(event.Name)) {
				continue
			}
			// Cover directories created after the initial walk.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			select {
			case w.events <- struct{}{}:
			default:
				// A signal is already pending; one is enough.
			}

		case err, ok := <-w.inner.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) hidden(name string) bool {
	return !w.includeHidden && strings.HasPrefix(name, ".")
}
