package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever the file is written and calls
// onChange with the new config. Reload errors go to onError (which may be
// nil) and leave the previous config in place. Watch blocks until ctx is
// done.
func (s *Service) Watch(ctx context.Context, onChange func(*Config), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.filePath), err)
	}

	reportErr := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce = time.After(reloadDebounce)

		case <-debounce:
			debounce = nil
			if err := s.Load(); err != nil {
				reportErr(fmt.Errorf("failed to reload config: %w", err))
				continue
			}
			if onChange != nil {
				onChange(s.Get())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			reportErr(err)
		}
	}
}
