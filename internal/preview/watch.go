package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc rebuilds the site.
type RebuildFunc func(ctx context.Context) error

// WatchOptions configure Watch.
type WatchOptions struct {
	// Root is the working directory watched recursively.
	Root string
	// Output is never watched, so writes of a build cannot trigger another.
	Output   string
	Debounce time.Duration
}

// Watch rebuilds whenever files under opts.Root change, until ctx is done.
// Bursts of events collapse into one rebuild; a change during a running
// rebuild schedules exactly one more.
func Watch(ctx context.Context, opts WatchOptions, rebuild RebuildFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	output := ""
	if opts.Output != "" {
		if output, err = filepath.Abs(opts.Output); err != nil {
			return fmt.Errorf("resolve output dir: %w", err)
		}
	}
	w := &watcher{root: root, output: output}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	w.addDirsRecursive(fsw, root)

	rebuildReq, trigger := newDebouncer(opts.Debounce)
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		runRebuildWorker(ctx, rebuildReq, rebuild)
	}()
	defer workers.Wait()

	slog.Info("Watching for changes", logfields.Path(root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, ev) {
				trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

type watcher struct {
	root   string
	output string
}

// handleEvent reports whether ev should trigger a rebuild. New directories
// are added to the watch.
func (w *watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if w.ignored(ev.Name) || ev.Op == fsnotify.Chmod {
		return false
	}
	fi, statErr := os.Stat(ev.Name)
	isDir := statErr == nil && fi.IsDir()
	if isDir && ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		// Directory modification times change with every entry written.
		return false
	}
	if isDir && ev.Op.Has(fsnotify.Create) {
		w.addDirsRecursive(fsw, ev.Name)
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *watcher) ignored(path string) bool {
	if w.inOutput(path) {
		return true
	}
	return shouldIgnoreEvent(path)
}

func (w *watcher) inOutput(path string) bool {
	if w.output == "" {
		return false
	}
	rel, err := filepath.Rel(w.output, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && (w.inOutput(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// newDebouncer returns the rebuild request channel and a trigger that
// signals it once the trigger has been quiet for d.
func newDebouncer(d time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

// runRebuildWorker serializes rebuilds. A request arriving while a rebuild
// runs is kept in the buffered channel and served right after.
func runRebuildWorker(ctx context.Context, rebuildReq <-chan struct{}, rebuild RebuildFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			slog.Info("Change detected; rebuilding site")
			if err := rebuild(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// shouldIgnoreEvent returns true for paths that never trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, including .DS_Store and editor lock files.
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	// 4913 is the probe file vim writes before saving.
	return base == "Thumbs.db" || base == "4913"
}
