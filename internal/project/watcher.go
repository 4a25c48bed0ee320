package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lcq/internal/debug"
	"github.com/standardbeagle/lcq/internal/parser"
)

// DefaultDebounce is the quiet period before a batch of changes is analysed
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-analyses source files as they change on disk
type Watcher struct {
	driver   *Driver
	root     string
	watcher  *fsnotify.Watcher
	filter   *collector
	debounce time.Duration

	// onBatch receives the outcome of every debounced re-analysis
	onBatch func(*Result, error)
	// onRemove is told about deleted source files
	onRemove func(path string)

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for root using the driver's collection
// options to decide which directories to watch.
func NewWatcher(d *Driver, root string, debounce time.Duration, onBatch func(*Result, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		driver:   d,
		root:     absRoot,
		watcher:  fw,
		filter:   &collector{root: absRoot, opts: d.opts.Collect},
		debounce: debounce,
		onBatch:  onBatch,
		pending:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// OnRemove registers a callback for deleted source files
func (w *Watcher) OnRemove(fn func(path string)) {
	w.onRemove = fn
}

// Start adds watches for every non-excluded directory and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}
	w.wg.Add(1)
	go w.processEvents()
	debug.LogProject("watching %s\n", w.root)
	return nil
}

// Stop ends event processing and waits for an in-flight batch to finish.
// Pending changes that have not been flushed are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()

	w.mu.Lock()
	w.stopTimer()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && w.filter.excluded(path, true) {
			return filepath.SkipDir
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			if visited[resolved] {
				return filepath.SkipDir
			}
			visited[resolved] = true
		}
		if err := w.watcher.Add(path); err != nil {
			debug.LogProject("failed to watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogProject("watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	info, err := os.Stat(path)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.isSource(path) {
			if w.driver.opts.Cache != nil {
				w.driver.opts.Cache.Forget(path)
			}
			if w.onRemove != nil {
				w.onRemove(path)
			}
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.filter.excluded(path, true) {
			if err := w.addWatches(path); err != nil {
				debug.LogProject("failed to watch new directory %s: %v\n", path, err)
			}
		}
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.isSource(path) || w.filter.excluded(path, false) {
		return
	}
	w.schedule(path)
}

func (w *Watcher) isSource(path string) bool {
	lang, ok := parser.FromPath(path)
	return ok && parser.IsParserBacked(lang)
}

// schedule queues path and restarts the debounce timer
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return
	}
	w.pending[path] = true
	w.stopTimer()
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.flush()
	})
}

// stopTimer cancels a scheduled flush; callers hold mu. A timer stopped
// before firing never runs its callback, so its wait-group slot is released
// here.
func (w *Watcher) stopTimer() {
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.timer = nil
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 || w.ctx.Err() != nil {
		return
	}
	sort.Strings(paths)
	debug.LogProject("re-analysing %d changed files\n", len(paths))

	res, err := w.driver.AnalyzeFiles(w.ctx, w.root, paths)
	if w.onBatch != nil {
		w.onBatch(res, err)
	}
}
