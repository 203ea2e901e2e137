package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig holds configuration for the config watcher.
type WatcherConfig struct {
	// Files are the config files to watch, the main file plus its includes.
	Files    []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// ConfigWatcher calls onChange after any watched config file is written,
// created, renamed or removed. Bursts of events within the debounce window
// collapse into one call.
//
// Parent directories are watched rather than the files themselves so that
// editors replacing a file through rename keep triggering reloads.
type ConfigWatcher struct {
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	watcher *fsnotify.Watcher
	ready   chan struct{}
}

// NewConfigWatcher creates a watcher for cfg.Files.
func NewConfigWatcher(cfg WatcherConfig, onChange func()) *ConfigWatcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &ConfigWatcher{
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		ready:    make(chan struct{}),
	}
	for _, f := range cfg.Files {
		w.files[filepath.Clean(f)] = true
	}
	return w
}

// Ready is closed once the initial watches are in place.
func (w *ConfigWatcher) Ready() <-chan struct{} {
	return w.ready
}

// SetFiles replaces the watched file set, e.g. after a reload changed the
// include list.
func (w *ConfigWatcher) SetFiles(files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = make(map[string]bool, len(files))
	for _, f := range files {
		w.files[filepath.Clean(f)] = true
	}
	if w.watcher != nil {
		w.addDirsLocked()
	}
}

// addDirsLocked watches the parent directory of every file not yet covered.
func (w *ConfigWatcher) addDirsLocked() {
	for f := range w.files {
		dir := filepath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("config watcher: failed to watch directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
		w.logger.Debug("config watcher: watching directory", "dir", dir)
	}
}

func (w *ConfigWatcher) watched(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(name)]
}

// Run watches until ctx is cancelled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	w.mu.Lock()
	w.watcher = watcher
	w.addDirsLocked()
	w.mu.Unlock()
	close(w.ready)

	w.logger.Info("config watcher started", "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) || !w.watched(ev.Name) {
				continue
			}
			w.logger.Debug("config watcher: change", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			w.fire()
		}
	}
}

func (w *ConfigWatcher) fire() {
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("config reload panic recovered", "error", err)
		}
	}()
	w.onChange()
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
