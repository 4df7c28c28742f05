// Package reload provides configuration hot reload support: a debounced
// filesystem watcher that emits an event when the config file changes.
package reload

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mattiasbax/librealsense/pkg/logger"
)

// Watcher watches a configuration file and emits debounced change events.
type Watcher struct {
	path     string
	debounce time.Duration
	fw       *fsnotify.Watcher
	changeCh chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		fw:       fw,
		changeCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching and returns the change channel. The channel is
// closed when the watcher stops.
func (w *Watcher) Start() (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil, fmt.Errorf("watcher already running")
	}

	// Watch the parent directory so atomic renames over the file are
	// seen as create events.
	dir := filepath.Dir(w.path)
	if err := w.fw.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.running = true
	go w.loop()

	return w.changeCh, nil
}

// Stop stops watching. Safe to call once; subsequent calls are no-ops.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.fw.Close()
}

func (w *Watcher) loop() {
	defer close(w.changeCh)

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			timerCh = debounceTimer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher error: %v", err)

		case <-timerCh:
			timerCh = nil
			select {
			case w.changeCh <- struct{}{}:
			default:
				// An event is already pending; collapsing is fine.
			}
		}
	}
}
