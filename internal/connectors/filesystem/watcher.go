package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.SourceWatcher = (*Watcher)(nil)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports changes to recognised files under a root directory,
// including files in subdirectories created after watching started.
type Watcher struct {
	root   string
	loader *Loader

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool

	// dirs holds the watched directories, so a removal can be told apart
	// from an unrecognised file.
	dirsMu sync.Mutex
	dirs   map[string]struct{}
}

// NewWatcher creates a watcher for root. The loader decides which files
// are recognised.
func NewWatcher(root string, loader *Loader) *Watcher {
	if loader == nil {
		loader = NewLoader()
	}
	return &Watcher{root: root, loader: loader, dirs: make(map[string]struct{})}
}

// Watch starts watching. Only one watch may run at a time.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}
	if w.watcher != nil {
		return nil, fmt.Errorf("%w: already watching %s", domain.ErrInvalidInput, w.root)
	}

	info, err := os.Stat(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("data directory %s: %w", w.root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	changes := make(chan domain.FileChange)
	go w.run(ctx, fsw, changes)
	return changes, nil
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- domain.FileChange) {
	defer close(changes)
	defer w.Close() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			for _, change := range w.handleFsEvent(fsw, event) {
				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent maps one fsnotify event to zero or more file changes.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event) []domain.FileChange {
	if w.hidden(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.forgetDir(event.Name) && !w.loader.Recognised(event.Name) {
			return nil
		}
		return []domain.FileChange{{Type: domain.ChangeDeleted, Path: event.Name}}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return w.created(fsw, event.Name)
		}
		if !info.Mode().IsRegular() || !w.loader.Recognised(event.Name) {
			return nil
		}
		return []domain.FileChange{{Type: domain.ChangeCreated, Path: event.Name}}

	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || !info.Mode().IsRegular() || !w.loader.Recognised(event.Name) {
			return nil
		}
		return []domain.FileChange{{Type: domain.ChangeUpdated, Path: event.Name}}
	}

	return nil
}

// created starts watching a new directory and reports the files already in it.
func (w *Watcher) created(fsw *fsnotify.Watcher, dir string) []domain.FileChange {
	if err := w.addTree(fsw, dir); err != nil {
		logger.Warn("cannot watch %s: %v", dir, err)
	}

	var out []domain.FileChange
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.loader.Recognised(path) {
			out = append(out, domain.FileChange{Type: domain.ChangeCreated, Path: path})
		}
		return nil
	})
	return out
}

// addTree watches dir and every non-hidden directory below it. With a nil
// fsw the directories are only recorded.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if fsw != nil {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		w.dirsMu.Lock()
		w.dirs[path] = struct{}{}
		w.dirsMu.Unlock()
		return nil
	})
}

// forgetDir drops dir and its subdirectories from the watched set and
// reports whether dir was being watched.
func (w *Watcher) forgetDir(dir string) bool {
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()

	if _, ok := w.dirs[dir]; !ok {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}
	return true
}

// hidden reports whether path is hidden relative to the watched root.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	return isHidden(rel)
}
