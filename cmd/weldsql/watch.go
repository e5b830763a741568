package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long a burst of events on a file is coalesced.
const debounce = 50 * time.Millisecond

// watch calls changed after writes to any of the files until ctx is done.
// Directories are watched rather than files, so editors replacing a file on
// save are followed.
func watch(ctx context.Context, logger *slog.Logger, files []string, changed func(string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	wanted := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		wanted[abs] = true
		dir := filepath.Dir(abs)
		if err := w.Add(dir); err != nil {
			return err
		}
		logger.Debug("watching", "dir", dir, "file", filepath.Base(abs))
	}
	var t *time.Timer
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !wanted[name] {
				continue
			}
			if t != nil {
				t.Stop()
			}
			t = time.AfterFunc(debounce, func() { changed(name) })
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch failed", "err", err)
		}
	}
}
