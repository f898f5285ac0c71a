package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xlog "tomatotimer/internal/log"
	"tomatotimer/internal/ui/preferences"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads the settings file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(preferences.Settings)
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path. The parent directory is watched so atomic
// replacements are seen. onChange runs on a timer goroutine after each
// successful reload; a file that fails to parse is logged and skipped.
// The watcher stops when ctx is cancelled or Close is called.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(preferences.Settings)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	watcher := &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		logger:   xlog.WithComponent("settings"),
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}

	watcher.logger.Info().
		Str(xlog.FieldEvent, "settings.watcher_started").
		Str(xlog.FieldPath, path).
		Msg("watching settings file for changes")

	go watcher.loop(ctx)
	return watcher, nil
}

// Close stops the watcher and waits for its loop to exit. A pending reload
// is dropped.
func (watcher *Watcher) Close() error {
	err := watcher.watcher.Close()
	<-watcher.done
	watcher.mu.Lock()
	if watcher.timer != nil {
		watcher.timer.Stop()
		watcher.timer = nil
	}
	watcher.mu.Unlock()
	return err
}

func (watcher *Watcher) loop(ctx context.Context) {
	defer close(watcher.done)

	for {
		select {
		case <-ctx.Done():
			watcher.logger.Info().Str(xlog.FieldEvent, "settings.watcher_stopped").Msg("settings watcher stopped")
			_ = watcher.watcher.Close()
			return

		case event, ok := <-watcher.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != watcher.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			watcher.logger.Debug().
				Str(xlog.FieldEvent, "settings.file_changed").
				Str("op", event.Op.String()).
				Msg("settings file changed")
			watcher.schedule()

		case err, ok := <-watcher.watcher.Errors:
			if !ok {
				return
			}
			watcher.logger.Error().
				Err(err).
				Str(xlog.FieldEvent, "settings.watcher_error").
				Msg("settings watcher error")
		}
	}
}

func (watcher *Watcher) schedule() {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	if watcher.timer != nil {
		watcher.timer.Stop()
	}
	watcher.timer = time.AfterFunc(watcher.debounce, watcher.reload)
}

func (watcher *Watcher) reload() {
	settings, err := LoadSettings(watcher.path)
	if err != nil {
		watcher.logger.Error().
			Err(err).
			Str(xlog.FieldEvent, "settings.reload_failed").
			Str(xlog.FieldPath, watcher.path).
			Msg("keeping previous settings")
		return
	}
	watcher.logger.Info().
		Str(xlog.FieldEvent, "settings.reloaded").
		Str(xlog.FieldPath, watcher.path).
		Msg("settings reloaded")
	if watcher.onChange != nil {
		watcher.onChange(settings)
	}
}
