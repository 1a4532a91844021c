// Package watch reports changes to corpus books on disk.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kittclouds/talestat/internal/logging"
)

// Operation is the kind of change seen on a file.
type Operation int

const (
	FileCreated Operation = iota
	FileModified
	FileDeleted
)

func (o Operation) String() string {
	switch o {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is one change to a watched file.
type Event struct {
	Path      string
	Operation Operation
}

// Watcher wraps fsnotify and filters by extension.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // File extensions to watch (e.g. ".txt")
}

// New creates a new file watcher. Without extensions it watches .txt files.
func New(extensions []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".txt"}
	}

	return &Watcher{
		watcher:    w,
		extensions: extensions,
	}, nil
}

// Watch starts monitoring dir and emits events until ctx is done or the
// watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan Event, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op Operation
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = FileModified
				case event.Op&fsnotify.Remove == fsnotify.Remove,
					event.Op&fsnotify.Rename == fsnotify.Rename:
					op = FileDeleted
				default:
					continue
				}

				select {
				case events <- Event{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("watcher error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
