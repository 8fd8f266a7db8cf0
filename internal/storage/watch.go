package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"pomobeat/internal/ui/preferences"
)

// SettingsWatcher reloads the settings file whenever it changes on disk.
type SettingsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
}

// WatchSettings watches the directory of configPath. Editors replace files
// by rename, so the file itself is not watched.
func WatchSettings(configPath string, logger zerolog.Logger) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch settings directory: %w", err)
	}
	return &SettingsWatcher{
		path:    filepath.Clean(configPath),
		watcher: watcher,
		logger:  logger.With().Str("component", "settings").Logger(),
	}, nil
}

// Run delivers reloaded settings to onChange until ctx ends. Unreadable
// intermediate states are logged and skipped.
func (settingsWatcher *SettingsWatcher) Run(ctx context.Context, onChange func(preferences.Settings)) {
	defer settingsWatcher.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-settingsWatcher.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != settingsWatcher.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settings, err := LoadSettingsFrom(settingsWatcher.path)
			if err != nil {
				settingsWatcher.logger.Warn().Err(err).Msg("settings reload skipped")
				continue
			}
			settingsWatcher.logger.Info().Str("path", settingsWatcher.path).Msg("settings reloaded")
			onChange(settings)
		case err, ok := <-settingsWatcher.watcher.Errors:
			if !ok {
				return
			}
			settingsWatcher.logger.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
