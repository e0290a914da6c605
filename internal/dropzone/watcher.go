// Package dropzone watches a directory and reports documents placed in it,
// feeding the upload drop path.
package dropzone

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/docqa/internal/domain"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports files created in a directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
}

// New creates dir if needed and starts watching it.
func New(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create drop directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{watcher: w, dir: dir}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Watch emits a file for every regular file created or moved into the
// directory. Extension filtering is left to the receiver. The channel is
// closed when ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) <-chan domain.File {
	files := make(chan domain.File, 16)

	go func() {
		defer close(files)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) {
					continue
				}

				f, err := domain.FileFromPath(event.Name)
				if err != nil {
					slog.Debug("Ignoring drop event", "path", event.Name, "error", err)
					continue
				}

				select {
				case files <- f:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Drop folder watcher error", "dir", w.dir, "error", err)
			}
		}
	}()

	return files
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
