// Package watch re-runs work when files on disk change. Bursts of writes to one
// file, such as an editor's save-and-rename, collapse into a single call.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period after the last write before a change fires.
const DefaultDelay = 300 * time.Millisecond

// ChangeHandler is called with the absolute path of a changed file.
type ChangeHandler func(path string)

// Watcher watches individual files. fsnotify watches directories, so the
// directory of each file is added and events for other files are ignored.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ChangeHandler
	delay    time.Duration

	mu       sync.Mutex
	watching map[string]func(f func()) // abs path -> debouncer
	dirs     map[string]int            // dir -> watched files in it
	done     chan struct{}
}

// New creates a Watcher. A zero delay means DefaultDelay.
func New(delay time.Duration, onChange ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		delay:    delay,
		watching: make(map[string]func(f func())),
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Watch starts watching path. Watching the same path twice is a no-op.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watching[absPath]; ok {
		return nil
	}
	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.watching[absPath] = debounce.New(w.delay)
	return nil
}

// Unwatch stops watching path. A change already waiting out its delay still fires.
func (w *Watcher) Unwatch(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watching[absPath]; !ok {
		return
	}
	delete(w.watching, absPath)
	dir := filepath.Dir(absPath)
	if w.dirs[dir]--; w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			log.Printf("[Watch] remove %s: %v", dir, err)
		}
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			w.mu.Lock()
			debounced, watched := w.watching[absPath]
			w.mu.Unlock()
			if watched && w.onChange != nil {
				debounced(func() { w.onChange(absPath) })
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watch] watcher error: %v", err)
		}
	}
}
