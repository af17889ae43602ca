package standalone

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
)

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".ts": true, ".wmv": true, ".mov": true,
}

// Watcher implements collab.FilesystemSource over fsnotify, coalescing
// create/modify/rename bursts per path behind a debounce timer and holding
// dispatch until a file's size has stopped growing between two observations
// two seconds apart.
type Watcher struct {
	debounce time.Duration
	stable   time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]fsnotify.Op
}

func NewWatcher(debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Watcher{
		debounce: debounce,
		stable:   2 * time.Second,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]fsnotify.Op),
	}
}

// Watch satisfies collab.FilesystemSource: it returns a channel of
// debounced, size-stable file events for every video file under paths.
func (w *Watcher) Watch(ctx context.Context, paths []string) (<-chan collab.FileEvent, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := addRecursive(fsw, p); err != nil {
			slog.Warn("standalone.watcher.add_path_failed", "path", p, "error", err)
		}
	}

	out := make(chan collab.FileEvent, 64)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- collab.FileEvent) {
	defer fsw.Close()
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("standalone.watcher.error", "error", err)
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isVideoFile(ev.Name) {
				continue
			}
			w.scheduleDispatch(ctx, ev, out)
		}
	}
}

// scheduleDispatch resets the per-path debounce timer on every burst event;
// the timer callback itself performs the size-stability check before the
// event is actually handed to the caller.
func (w *Watcher) scheduleDispatch(ctx context.Context, ev fsnotify.Event, out chan<- collab.FileEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[ev.Name] = ev.Op
	if t, ok := w.timers[ev.Name]; ok {
		t.Stop()
	}
	w.timers[ev.Name] = time.AfterFunc(w.debounce, func() {
		w.checkStabilityAndDispatch(ctx, ev.Name, out)
	})
}

func (w *Watcher) checkStabilityAndDispatch(ctx context.Context, path string, out chan<- collab.FileEvent) {
	op, existed := w.takePending(path)
	if !existed {
		return
	}

	if op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0 {
		select {
		case out <- collab.FileEvent{Kind: collab.FileEventRemoved, Path: path, Time: time.Now()}:
		case <-ctx.Done():
		}
		return
	}

	sizeBefore, err := fileSize(path)
	if err != nil {
		return // file vanished between debounce and check; skip silently
	}
	time.Sleep(w.stable)
	sizeAfter, err := fileSize(path)
	if err != nil {
		return
	}
	if sizeAfter != sizeBefore {
		// Still growing: re-arm the debounce rather than dispatching early.
		w.mu.Lock()
		w.pending[path] = op
		w.timers[path] = time.AfterFunc(w.debounce, func() {
			w.checkStabilityAndDispatch(ctx, path, out)
		})
		w.mu.Unlock()
		return
	}

	kind := collab.FileEventModified
	if op&fsnotify.Create != 0 {
		kind = collab.FileEventCreated
	}
	select {
	case out <- collab.FileEvent{Kind: kind, Path: path, Time: time.Now()}:
	case <-ctx.Done():
	}
}

func (w *Watcher) takePending(path string) (fsnotify.Op, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	op, ok := w.pending[path]
	delete(w.pending, path)
	delete(w.timers, path)
	return op, ok
}

// Walk satisfies collab.FilesystemSource for the scanner's full-tree pass.
func (w *Watcher) Walk(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isVideoFile(path) {
			files = append(files, path)
		}
		return ctx.Err()
	})
	return files, err
}

func isVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
