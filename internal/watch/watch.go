// Package watch observes directories for file changes and reports settled
// paths so they can be rescanned.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Change is one settled filesystem change.
type Change struct {
	Path string
	Op   string
}

// Watcher wraps fsnotify with per-path debouncing. Editors and copy tools
// fire bursts of writes for a single logical change; the debounce delay
// collapses each burst into one Change.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   hclog.Logger
	debounce time.Duration

	changes chan Change

	mu      sync.Mutex
	pending map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher over the given directories. Directories are watched
// recursively at one level: subdirectories present at start are added too.
func New(paths []string, debounce time.Duration, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fs,
		logger:   logger,
		debounce: debounce,
		changes:  make(chan Change, 64),
		pending:  map[string]*time.Timer{},
	}

	for _, path := range paths {
		if err := w.addTree(path); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch target %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.fs.Add(filepath.Dir(root))
	}

	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if err := w.fs.Add(path); err != nil {
				return fmt.Errorf("watch directory %s: %w", path, err)
			}
		}
		return nil
	})
}

// Start begins delivering changes until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop()
}

// Changes returns the channel of settled changes. Consumers should select
// on it together with their own context; the channel stays open so late
// debounce timers never write to a closed channel.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Stop cancels the watch loop and releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// New directories must be added so files created inside
			// them are observed.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fs.Add(event.Name); err != nil {
						w.logger.Warn("watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			w.schedule(event.Name, event.Op.String())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) schedule(path string, op string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.changes <- Change{Path: path, Op: op}:
		case <-w.ctx.Done():
		}
	})
}
