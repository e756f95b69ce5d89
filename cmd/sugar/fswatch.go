package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/webfs"
)

// debounce collapses bursts of file events into one walk.
const debounce = 200 * time.Millisecond

// watchTree re-walks the explorer's root after file system changes until
// ctx is done.
func watchTree(ctx context.Context, logger *slog.Logger, ex *webfs.Explorer, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("S303").WithSubject(root).Wrap(err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	addDirs := func() {
		for key, h := range ex.Handles.Peek() {
			if h.Kind() != webfs.KindDirectory || watched[key] {
				continue
			}
			if err := w.Add(filepath.Join(root, filepath.FromSlash(key))); err != nil {
				logger.Debug("watch add failed", "dir", key, "error", err)
				continue
			}
			watched[key] = true
		}
	}
	addDirs()
	logger.Info("watching", "root", root, "dirs", len(watched))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("file event", "op", event.Op.String(), "path", event.Name)
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// A directory that comes back must be added again.
				if rel, err := filepath.Rel(root, event.Name); err == nil {
					delete(watched, filepath.ToSlash(rel))
				}
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-timer.C:
			if _, err := ex.FetchTree(ctx, nil); err != nil {
				logger.Warn("walk failed", "error", err)
				continue
			}
			addDirs()
		}
	}
}
