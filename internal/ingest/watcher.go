package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, emit files already present under roots
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// Watch emits the paths of parseable files created or written under the
// roots until ctx is done. Both channels are closed when the watcher stops.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, fmt.Errorf("%w: no roots provided", common.ErrInvalidInput)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		found, err := addTree(w, root, cfg.InitialScan)
		if err != nil {
			logger.Error("failed to add root directory", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
		initial = append(initial, found...)
	}

	paths := make(chan string, 64)
	errs := make(chan error, 1)
	go watchLoop(ctx, w, cfg.Debounce, initial, paths, errs, logger)
	return paths, errs, nil
}

// addTree watches root and every non-hidden directory below it. With scan
// set it also returns the parseable files already there.
func addTree(w *fsnotify.Watcher, root string, scan bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if scan && AllowedExt(filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, initial []string,
	paths chan<- string, errs chan<- error, logger *slog.Logger) {
	defer close(errs)
	defer close(paths)
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("failed to close watcher", "error", err)
		}
	}()

	pending := make(map[string]struct{}, len(initial))
	for _, p := range initial {
		pending[p] = struct{}{}
	}
	// flush emits pending paths in lexical order; false means ctx ended.
	flush := func() bool {
		keys := make([]string, 0, len(pending))
		for p := range pending {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		for _, p := range keys {
			select {
			case paths <- p:
				delete(pending, p)
			case <-ctx.Done():
				return false
			}
		}
		return true
	}
	if !flush() {
		return
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fire:
			fire = nil
			if !flush() {
				return
			}
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if IsHidden(e.Name) {
				continue
			}
			found := eventPaths(w, e, logger)
			if len(found) == 0 {
				continue
			}
			for _, p := range found {
				pending[p] = struct{}{}
			}
			if debounce <= 0 {
				if !flush() {
					return
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
			select {
			case errs <- err:
			default:
			}
		}
	}
}

// eventPaths returns the files an event makes pending. A new directory is
// watched and scanned at once, since files may land in it before w.Add.
func eventPaths(w *fsnotify.Watcher, e fsnotify.Event, logger *slog.Logger) []string {
	if e.Has(fsnotify.Create) {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			found, err := addTree(w, e.Name, true)
			if err != nil {
				logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
			}
			return found
		}
	}
	if (e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) && AllowedExt(filepath.Ext(e.Name)) {
		return []string{e.Name}
	}
	return nil
}
