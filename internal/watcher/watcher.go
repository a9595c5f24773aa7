// Package watcher reruns a vault action whenever notes change.
//
// It backs `vpub watch`, which keeps the publish-closure report (and
// optionally the snapshot) current while notes are being edited.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/vpub/internal/logger"
	"github.com/aidanlsb/vpub/internal/vault"
)

// DefaultDebounceDelay is used when Config.DebounceDelay is zero.
const DefaultDebounceDelay = 200 * time.Millisecond

// ChangeFunc is called with the vault-relative paths of the notes that
// changed since the last call.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher monitors a vault directory and calls OnChange once a burst of
// note edits has settled.
type Watcher struct {
	root          string
	debounceDelay time.Duration
	log           *logger.Logger
	onChange      ChangeFunc

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
}

// Config holds configuration options for the Watcher.
type Config struct {
	Root          string
	DebounceDelay time.Duration
	Log           *logger.Logger
	OnChange      ChangeFunc
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("vault root is required")
	}
	if cfg.OnChange == nil {
		return nil, errors.New("change callback is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = DefaultDebounceDelay
	}
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}

	return &Watcher{
		root:          cfg.Root,
		debounceDelay: debounce,
		log:           log,
		onChange:      cfg.OnChange,
		pending:       make(map[string]time.Time),
	}, nil
}

// Start begins watching the vault. It blocks until ctx is cancelled or
// OnChange returns an error.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch vault: %w", err)
	}
	w.log.Debug("watching vault", "root", w.root)

	ticker := time.NewTicker(w.debounceDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case now := <-ticker.C:
			if err := w.processPending(ctx, now); err != nil {
				return err
			}
		}
	}
}

// handleEvent queues note changes and starts watching new directories.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldIgnore(path) {
		return
	}

	if event.Has(fsnotify.Create) && w.fsWatcher != nil {
		if isDir(path) {
			if err := w.addWatchRecursive(path); err != nil {
				w.log.Warn("failed to watch directory", "dir", path, "error", err)
			}
			return
		}
	}

	if !vault.IsNoteFile(filepath.Base(path)) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	w.log.Debug("note changed", "op", event.Op.String(), "file", path)
	w.schedule(path, time.Now())
}

func (w *Watcher) schedule(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// processPending calls OnChange once every queued path has been quiet for
// the debounce delay. A single edit in a burst keeps the whole batch waiting.
func (w *Watcher) processPending(ctx context.Context, now time.Time) error {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return nil
	}
	for _, at := range w.pending {
		if now.Sub(at) < w.debounceDelay {
			w.mu.Unlock()
			return nil
		}
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, w.rel(path))
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(changed)
	return w.onChange(ctx, changed)
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.log.Debug("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

// shouldIgnore mirrors the vault walk: anything under a dot directory
// (.obsidian, .git, .trash, .vpub) is not part of the vault.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	last := parts[len(parts)-1]
	return strings.HasPrefix(last, ".") && isDir(path)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
