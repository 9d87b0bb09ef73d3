// Package spool runs on the camera gateway: it watches the capture spool
// directory and uploads every new image to the extraction server. The
// camera process only has to write files; delivery is this package's job.
package spool

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abhi542/MouldLensAI/constants"
)

// WatchConfig controls spool discovery.
type WatchConfig struct {
	Root        string        // spool directory (recursive)
	InitialScan bool          // emit files already present at startup
	Debounce    time.Duration // coalesce write bursts while the camera flushes
}

// StartWatcher emits the path of each capture as it lands in the spool.
// The channel closes when ctx is cancelled. Only files with an allowed
// image extension are emitted; hidden files and directories are skipped.
// Emission blocks on a slow consumer rather than dropping captures.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("spool root is required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	root := filepath.Clean(cfg.Root)

	// hiddenUnder reports whether any path element below the root is
	// hidden; the .sent archive lives in such a directory and must never
	// re-enter the spool stream.
	hiddenUnder := func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part != "." && part != ".." && strings.HasPrefix(part, ".") {
				return true
			}
		}
		return false
	}

	evCh := make(chan string, 256)

	// Watch the tree and collect what is already spooled; the backlog is
	// emitted from the goroutine so an arbitrarily large spool cannot
	// stall startup.
	var backlog []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && hiddenUnder(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && isCapture(path) {
			backlog = append(backlog, path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	go func() {
		defer close(evCh)
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("spool.watcher_close_error", "error", cerr)
			}
		}()

		var timer *time.Timer
		flushCh := make(chan struct{}, 1)
		pending := map[string]struct{}{}

		// Sends block: a slow uploader back-pressures the watcher
		// instead of losing deliveries. Cancellation is the only way
		// a capture goes unsent.
		send := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, p := range backlog {
			if !send(p) {
				return
			}
		}

		// pending and timer are touched only by this goroutine; the
		// debounce timer just nudges the loop through flushCh.
		flush := func() bool {
			for p := range pending {
				if !send(p) {
					return false
				}
				delete(pending, p)
			}
			return true
		}
		arm := func() {
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cfg.Debounce, func() {
				select {
				case flushCh <- struct{}{}:
				default:
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-flushCh:
				if !flush() {
					return
				}
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if hiddenUnder(e.Name) {
					continue
				}
				if e.Op&fsnotify.Create != 0 {
					// New subdirectory: watch it. Add fails on plain
					// files, which is fine.
					_ = w.Add(e.Name)
				}
				if !isCapture(e.Name) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					arm()
				} else if !flush() {
					return
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("spool.watcher_error", "error", werr)
			}
		}
	}()

	return evCh, nil
}

// isCapture reports whether the path has an accepted image extension.
func isCapture(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}
