// ABOUTME: Directory watcher re-running ingestion when documents change
// ABOUTME: fsnotify events are debounced so a burst of writes triggers one rebuild
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts
const DefaultDebounce = 2 * time.Second

// Runner performs one ingestion
type Runner interface {
	Run(ctx context.Context, dir string) (models.IngestStats, error)
	Supported(path string) bool
}

// Watcher rebuilds the index whenever a supported file in the directory changes
type Watcher struct {
	runner   Runner
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	// OnRun, if set, receives the outcome of every triggered run
	OnRun func(models.IngestStats, error)
}

// NewWatcher creates a Watcher; debounce <= 0 uses DefaultDebounce
func NewWatcher(runner Runner, dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		runner:   runner,
		dir:      dir,
		debounce: debounce,
		logger:   logging.OrDefault(logger),
	}
}

// Watch blocks until ctx is cancelled
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching documents", "directory", w.dir, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.logger.Debug("document changed", "path", event.Name, "op", event.Op.String())
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			stats, err := w.runner.Run(ctx, w.dir)
			if err != nil {
				w.logger.Error("re-ingestion failed", "error", err)
			}
			if w.OnRun != nil {
				w.OnRun(stats, err)
			}
		}
	}
}

// relevant filters out hidden files, chmod-only events and unsupported types
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.runner.Supported(event.Name)
}
