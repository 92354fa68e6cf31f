// Package workers contains background workers for Kitchen.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/collections/set"
)

// Reloader rebuilds state from the files a watcher observes.
type Reloader interface {
	Reload() error
}

// ManifestWatcherConfig configures the manifest watcher.
type ManifestWatcherConfig struct {
	// Debounce is how long the watcher waits after the last change before
	// reloading. Editors often write a file in several steps.
	// Default: 500 milliseconds.
	Debounce time.Duration
}

// DefaultManifestWatcherConfig returns the default configuration.
func DefaultManifestWatcherConfig() ManifestWatcherConfig {
	return ManifestWatcherConfig{
		Debounce: 500 * time.Millisecond,
	}
}

// ManifestWatcher reloads the manifest catalog when a manifest file changes.
// It watches the containing directories rather than the files, so files that
// are replaced by rename are still picked up.
type ManifestWatcher struct {
	reloader Reloader
	files    set.Strings
	dirs     []string
	config   ManifestWatcherConfig
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	reloads chan struct{}

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManifestWatcher creates a watcher for the given files.
func NewManifestWatcher(reloader Reloader, files []string, config ManifestWatcherConfig, logger *slog.Logger) *ManifestWatcher {
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	watched := set.NewStrings()
	dirs := set.NewStrings()
	for _, file := range files {
		clean := filepath.Clean(file)
		watched.Add(clean)
		dirs.Add(filepath.Dir(clean))
	}

	return &ManifestWatcher{
		reloader: reloader,
		files:    watched,
		dirs:     dirs.SortedValues(),
		config:   config,
		logger:   logger.With("component", "manifest_watcher"),
		reloads:  make(chan struct{}, 1),
	}
}

// Start begins watching. It fails if a directory cannot be watched.
func (w *ManifestWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.watcher = watcher
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.wg.Add(1)
	go w.run()

	w.logger.Info("manifest watcher started",
		"files", w.files.Size(),
		"debounce", w.config.Debounce,
	)
	return nil
}

// Stop stops watching and waits for an in-progress reload to finish.
func (w *ManifestWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	w.logger.Info("manifest watcher stopped")
}

// Reloaded receives a value after every reload attempt. Sends never block, so
// a reader that falls behind sees one value for several reloads.
func (w *ManifestWatcher) Reloaded() <-chan struct{} {
	return w.reloads
}

// run waits for file events and reloads once they settle.
func (w *ManifestWatcher) run() {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("manifest changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *ManifestWatcher) relevant(event fsnotify.Event) bool {
	if !w.files.Contains(filepath.Clean(event.Name)) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Rename) || event.Op.Has(fsnotify.Remove)
}

func (w *ManifestWatcher) reload() {
	if err := w.reloader.Reload(); err != nil {
		w.logger.Warn("manifest reload failed, keeping previous catalog", "error", err)
	} else {
		w.logger.Info("manifest reloaded")
	}
	select {
	case w.reloads <- struct{}{}:
	default:
	}
}
