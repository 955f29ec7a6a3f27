package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces filesystem change events across the declared workspace
// roots and invokes OnChange once per quiet period, so AST/vector index
// rebuilds don't fire once per individual write syscall.
//
// Grounded on internal/skills/manager.go's StartWatching/watchLoop
// (fsnotify.Watcher plus a debounce timer reset on every event),
// generalized from a skills-directory watch to arbitrary workspace roots.
type Watcher struct {
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	OnChange func(path string)
}

// NewWatcher creates a Watcher with the given debounce window. A zero
// debounce defaults to 250ms, matching the skills manager's default.
func NewWatcher(logger *slog.Logger, debounce time.Duration) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{logger: logger, debounce: debounce}
}

// Start begins watching roots, recursively, until ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			w.logger.Warn("workspace watch: failed to watch root", "root", root, "error", err)
		}
	}

	w.wg.Add(1)
	go w.loop(watchCtx)
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	files, err := ListFiles([]string{root})
	if err != nil {
		return err
	}
	dirs := map[string]bool{root: true}
	for _, f := range files {
		dirs[dirParent(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("workspace watch: failed to add directory", "dir", dir, "error", err)
		}
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}

	var timerMu sync.Mutex
	var timer *time.Timer
	var pending string
	schedule := func(path string) {
		timerMu.Lock()
		defer timerMu.Unlock()
		pending = path
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			timerMu.Lock()
			p := pending
			timerMu.Unlock()
			if w.OnChange != nil {
				w.OnChange(p)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("workspace watch error", "error", err)
		}
	}
}

// Close stops the watcher and releases its file descriptors.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	fw := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	var err error
	if fw != nil {
		err = fw.Close()
	}
	w.wg.Wait()
	return err
}

func dirParent(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' && path[i] != '\\' {
		i--
	}
	if i <= 0 {
		return "."
	}
	return path[:i]
}
