package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDelay debounces bursts of file events into one reload
const ReloadDelay = 500 * time.Millisecond

// WatchFile calls onChange after path is written, created or replaced.
// The parent directory is watched so editors that swap files are seen.
// Watching stops when ctx is done.
func WatchFile(ctx context.Context, path string, onChange func(), logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	reload := make(chan struct{}, 1)
	go scheduleReload(ctx, reload, onChange)
	go handleWatcher(ctx, watcher, filepath.Clean(path), reload, logger)
	return nil
}

func handleWatcher(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	path string,
	reload chan<- struct{},
	logger *slog.Logger,
) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				select {
				case reload <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

func scheduleReload(ctx context.Context, reload <-chan struct{}, callback func()) {
	var timer *time.Timer
	var c <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-reload:
			if timer != nil {
				timer.Reset(ReloadDelay)
			} else {
				timer = time.NewTimer(ReloadDelay)
				c = timer.C
			}
		case <-c:
			c = nil
			timer = nil
			callback()
		}
	}
}
