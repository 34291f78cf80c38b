// Package filewatcher provides file system monitoring adapters.
// Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // lower-case, dot included
	debounce   time.Duration
	log        *logger.Logger
}

// DefaultExtensions lists the extensions of every supported document format.
func DefaultExtensions() []string {
	exts := []string{".htm"}
	for _, f := range entities.SupportedFormats() {
		exts = append(exts, f.Extension())
	}
	return exts
}

// NewFSNotifyWatcher creates a new file watcher. Events for one path that
// arrive within debounce of each other are coalesced into one.
func NewFSNotifyWatcher(extensions []string, debounce time.Duration, log *logger.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions()
	}
	normalized := make([]string, len(extensions))
	for i, e := range extensions {
		normalized[i] = strings.ToLower(e)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: normalized,
		debounce:   debounce,
		log:        log,
	}, nil
}

// Watch starts monitoring the directory and emits events.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)
	fired := make(chan string, 100)

	go func() {
		defer close(events)
		pending := make(map[string]ports.FileOperation)
		timers := make(map[string]*time.Timer)
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
		}()

		emit := func(ev ports.FileEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				// Filter by extension
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = ports.FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = ports.FileModified
				case event.Op&fsnotify.Remove == fsnotify.Remove:
					op = ports.FileDeleted
				default:
					continue
				}

				if w.debounce <= 0 {
					if !emit(ports.FileEvent{Path: event.Name, Operation: op}) {
						return
					}
					continue
				}

				// A create followed by writes is still a create.
				if prev, seen := pending[event.Name]; !seen || prev != ports.FileCreated || op == ports.FileDeleted {
					pending[event.Name] = op
				}
				if t, ok := timers[event.Name]; ok {
					t.Reset(w.debounce)
					continue
				}
				path := event.Name
				timers[path] = time.AfterFunc(w.debounce, func() {
					select {
					case fired <- path:
					case <-ctx.Done():
					}
				})
			case path := <-fired:
				op, ok := pending[path]
				delete(pending, path)
				delete(timers, path)
				if ok && !emit(ports.FileEvent{Path: path, Operation: op}) {
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("file watcher error", "dir", dir, "error", err)
			}
		}
	}()

	w.log.Info("watching directory", "dir", dir, "extensions", w.extensions)
	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
