package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tartampluch/go-wishes/internal/config"
)

// Watch reloads the store whenever its backing file changes on disk and then
// calls onChange with the fresh snapshot. Bursts of events (editors, atomic
// renames) are coalesced over the debounce interval. Watch blocks until ctx
// is cancelled.
//
// The parent directory is watched rather than the file itself because an
// atomic save replaces the inode.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onChange func([]Contact)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWatchStart, err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("%s: %s: %w", config.ErrWatchStart, dir, err)
	}
	target := filepath.Clean(s.path)

	slog.Info(config.MsgWatchStarted,
		config.LogKeyComponent, config.CompWatcher,
		config.LogKeyFile, target)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug(config.MsgWatchStopped, config.LogKeyComponent, config.CompWatcher)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn(config.MsgWatchError,
				config.LogKeyComponent, config.CompWatcher,
				config.LogKeyError, err)

		case <-pending:
			pending = nil
			list, err := s.Load()
			if err != nil {
				// Keep the previous snapshot; a half-written file by another
				// editor is retried on its next write.
				slog.Warn(config.MsgWatchReloadFailed,
					config.LogKeyComponent, config.CompWatcher,
					config.LogKeyError, err)
				continue
			}
			slog.Info(config.MsgWatchReloaded,
				config.LogKeyComponent, config.CompWatcher,
				config.LogKeyCount, len(list))
			if onChange != nil {
				onChange(list)
			}
		}
	}
}
