// Package watch re-runs an action when instruction sources change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the tree must be quiet before a change fires.
const DefaultDebounce = 200 * time.Millisecond

// SourceExtensions are the files that trigger a re-run by default.
var SourceExtensions = []string{".rs", ".cue"}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"target":       true,
	"node_modules": true,
}

// Watcher watches a file or a directory tree.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	file     string // set when root is a single file
	exts     []string
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch of changes fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtensions replaces SourceExtensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) { w.exts = exts }
}

// WithLogger sets the logger for watcher events.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New watches root. A directory is watched recursively, skipping hidden
// directories and build output; a file is watched alone.
func New(root string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	w := &Watcher{
		fs:       fw,
		root:     filepath.Clean(root),
		exts:     SourceExtensions,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if info.IsDir() {
		err = w.addTree(w.root)
	} else {
		// Editors replace files on save, so watch the parent directory.
		w.file = w.root
		err = fw.Add(filepath.Dir(w.root))
	}
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		w.logger.Debug("watching directory", "path", path)
		return w.fs.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

// Run calls fn with the sorted, de-duplicated paths changed during each quiet
// period until ctx is cancelled. Errors from fn are logged and watching
// continues. Run closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string) error) error {
	defer w.fs.Close()

	var (
		pending = map[string]bool{}
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch event overflow, some changes may be missed")
				continue
			}
			w.logger.Error("watch error", "error", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			clear(pending)
			slices.Sort(changed)

			w.logger.Debug("sources changed", "files", changed)
			if err := fn(ctx, changed); err != nil {
				w.logger.Error("re-run failed", "error", err)
			}
		}
	}
}

// handle reports whether event is a source change. New directories are added
// to the watch.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if w.file != "" {
		return filepath.Clean(event.Name) == w.file
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skipDir(info.Name()) {
				return false
			}
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return false
		}
	}

	return slices.Contains(w.exts, filepath.Ext(event.Name))
}
