package templates

import (
	"fmt"
	"sync"
	"time"

	"resumecraft/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Registry when descriptor files in its directory change.
type Watcher struct {
	mu sync.Mutex

	dir      string
	registry *Registry

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	onReload   func()

	logger  *errors.Logger
	running bool
}

// NewWatcher creates a watcher for dir. onReload, if set, runs after each
// reload attempt.
func NewWatcher(dir string, registry *Registry, debounceDelay time.Duration, onReload func(), logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &Watcher{
		dir:           dir,
		registry:      registry,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("template watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(w.dir); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil {
			w.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	w.fsWatcher = fsWatcher
	w.running = true
	go w.watchLoop()

	w.logger.Info("Template watcher started", "directory", w.dir, "debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	w.logger.Info("Template watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Template watcher error")

		case <-w.reloadChan:
			w.logger.Info("Template files changed, reloading", "directory", w.dir)
			w.registry.Reload()
			if w.onReload != nil {
				w.onReload()
			}

		case <-w.stopChan:
			return
		}
	}
}

// shouldProcessEvent keeps changes to descriptor files, including renames
// used by atomic writes and removals.
func shouldProcessEvent(event fsnotify.Event) bool {
	if !isDescriptorFile(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
