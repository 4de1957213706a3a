// Package watch reports changes to the content tree during development.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"finitefield.org/academic-web/internal/debounce"
)

// DefaultPatterns are the content files that trigger a reload.
var DefaultPatterns = []string{"**/*.json", "**/*.md"}

// Options configures a Watcher.
type Options struct {
	Root     string
	Patterns []string
	Quiet    time.Duration
	Logger   *zap.Logger
	// OnChange runs once per burst of matching events.
	OnChange func()
}

// Watcher follows a directory tree with fsnotify.
type Watcher struct {
	opts     Options
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
}

// New creates a watcher over every directory below opts.Root.
func New(opts Options) (*Watcher, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("watch: root is required")
	}
	if opts.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange is required")
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid pattern %q", p)
		}
	}
	if opts.Quiet <= 0 {
		opts.Quiet = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{opts: opts, fsw: fsw}
	w.debounce = debounce.New(opts.Quiet, opts.OnChange)
	if err := w.addTree(opts.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

// Matches reports whether a path below the root is a watched content file.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.opts.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("content watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// new directories are followed so files created inside them are seen
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.opts.Logger.Warn("content watcher add failed", zap.String("path", ev.Name), zap.Error(err))
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if !w.Matches(ev.Name) {
		return
	}
	w.opts.Logger.Debug("content changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	w.debounce.Trigger()
}
