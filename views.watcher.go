package views

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/itsatony/go-views/internal"
)

// Watch observes the template directory and drops compiled templates whose
// files change, so the next render recompiles them. Events are coalesced
// over DefaultWatchDebounce. Watch blocks until ctx is done.
//
// Partials are registered once at construction and are not reloaded.
func (m *Manager) Watch(ctx context.Context) error {
	return m.watch(ctx, DefaultWatchDebounce)
}

func (m *Manager) watch(ctx context.Context, interval time.Duration) error {
	root, err := filepath.Abs(internal.NormalizeDir(m.config.Path))
	if err != nil {
		return &ConfigError{Message: ErrMsgWatchFailed, Field: m.config.Path, Cause: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &ConfigError{Message: ErrMsgWatchFailed, Field: root, Cause: err}
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, root); err != nil {
		return &ConfigError{Message: ErrMsgWatchFailed, Field: root, Cause: err}
	}

	extensions := m.registry.Extensions()
	debounce := internal.NewDebouncer(interval)
	defer debounce.Stop()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
	)
	flush := func() {
		mu.Lock()
		paths := pending
		pending = make(map[string]struct{})
		mu.Unlock()

		for path := range paths {
			if m.cache.invalidate(path) {
				m.logger.Debug(LogMsgCacheInvalidated, zap.String(LogFieldPath, path))
			}
		}
	}

	m.logger.Info(LogMsgWatcherStarted,
		zap.String(LogFieldPath, root),
		zap.Duration(LogFieldDuration, interval),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info(LogMsgWatcherStopped, zap.String(LogFieldPath, root))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) || internal.IsHidden(filepath.Base(event.Name)) {
				continue
			}

			m.logger.Debug(LogMsgWatcherEvent,
				zap.String(LogFieldPath, event.Name),
				zap.String(LogFieldOp, event.Op.String()),
			)

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						m.logger.Warn(LogMsgWatcherError, zap.Error(err))
					}
					continue
				}
			}

			if !internal.HasExtension(event.Name, extensions) {
				continue
			}

			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()
			debounce.Trigger(flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn(LogMsgWatcherError, zap.Error(err))
		}
	}
}

// addWatchTree adds dir and every non-hidden directory below it.
func addWatchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && internal.IsHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf(ErrFmtWithDetail, path, err.Error())
		}
		return nil
	})
}
