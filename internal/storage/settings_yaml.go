package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"pomobeat/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WorkMinutes           int           `yaml:"work_minutes"`
	ShortBreakMinutes     int           `yaml:"short_break_minutes"`
	LongBreakMinutes      int           `yaml:"long_break_minutes"`
	AlertRepeats          int           `yaml:"alert_repeats"`
	AlertIntervalMillis   int           `yaml:"alert_interval_ms"`
	ScrubThresholdSeconds int           `yaml:"scrub_threshold_seconds"`
	AudioEnabled          *bool         `yaml:"audio_enabled"`
	Volume                *float64      `yaml:"volume"`
	Notifications         *bool         `yaml:"notifications"`
	AutoAdvance           bool          `yaml:"auto_advance"`
	LongBreakEvery        int           `yaml:"long_break_every"`
	IsolatedTicks         bool          `yaml:"isolated_ticks"`
	LaunchAtLogin         bool          `yaml:"launch_at_login"`
	SoundDir              string        `yaml:"sound_dir,omitempty"`
	Chime                 *string       `yaml:"chime"`
	StartCue              *string       `yaml:"start_cue"`
	Playlists             yamlPlaylists `yaml:"playlists"`
}

type yamlPlaylists struct {
	Work       []string `yaml:"work"`
	ShortBreak []string `yaml:"short_break"`
	LongBreak  []string `yaml:"long_break"`
}

// LoadSettings reads user preferences from the default location and returns
// that location. If the config file does not exist, default settings are
// returned.
func LoadSettings(appName string) (preferences.Settings, string, error) {
	configPath, err := ResolveConfigPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), "", err
	}
	settings, err := LoadSettingsFrom(configPath)
	return settings, configPath, err
}

// LoadSettingsFrom reads user preferences from configPath.
func LoadSettingsFrom(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettingsTo writes user preferences to configPath.
func SaveSettingsTo(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := MarshalSettings(settings)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// MarshalSettings renders settings in the file format.
func MarshalSettings(settings preferences.Settings) ([]byte, error) {
	audioEnabled := settings.AudioEnabled
	volume := settings.Volume
	notifications := settings.Notifications
	chime := settings.Chime
	startCue := settings.StartCue

	fileData := yamlSettings{
		WorkMinutes:           int(settings.WorkDuration / time.Minute),
		ShortBreakMinutes:     int(settings.ShortBreakDuration / time.Minute),
		LongBreakMinutes:      int(settings.LongBreakDuration / time.Minute),
		AlertRepeats:          settings.AlertRepeats,
		AlertIntervalMillis:   int(settings.AlertInterval / time.Millisecond),
		ScrubThresholdSeconds: int(settings.ScrubThreshold / time.Second),
		AudioEnabled:          &audioEnabled,
		Volume:                &volume,
		Notifications:         &notifications,
		AutoAdvance:           settings.AutoAdvance,
		LongBreakEvery:        settings.LongBreakEvery,
		IsolatedTicks:         settings.IsolatedTicks,
		LaunchAtLogin:         settings.LaunchAtLogin,
		SoundDir:              settings.SoundDir,
		Chime:                 &chime,
		StartCue:              &startCue,
		Playlists: yamlPlaylists{
			Work:       settings.Playlists.Work,
			ShortBreak: settings.Playlists.ShortBreak,
			LongBreak:  settings.Playlists.LongBreak,
		},
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, fmt.Errorf("marshal settings yaml: %w", err)
	}
	return serialized, nil
}

// ResolveConfigPath returns the settings file under the user config dir.
func ResolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.WorkMinutes > 0 {
		settings.WorkDuration = time.Duration(fileData.WorkMinutes) * time.Minute
	}
	if fileData.ShortBreakMinutes > 0 {
		settings.ShortBreakDuration = time.Duration(fileData.ShortBreakMinutes) * time.Minute
	}
	if fileData.LongBreakMinutes > 0 {
		settings.LongBreakDuration = time.Duration(fileData.LongBreakMinutes) * time.Minute
	}
	if fileData.AlertRepeats > 0 {
		settings.AlertRepeats = fileData.AlertRepeats
	}
	if fileData.AlertIntervalMillis > 0 {
		settings.AlertInterval = time.Duration(fileData.AlertIntervalMillis) * time.Millisecond
	}
	if fileData.ScrubThresholdSeconds > 0 {
		settings.ScrubThreshold = time.Duration(fileData.ScrubThresholdSeconds) * time.Second
	}
	if fileData.LongBreakEvery > 0 {
		settings.LongBreakEvery = fileData.LongBreakEvery
	}

	if fileData.AudioEnabled != nil {
		settings.AudioEnabled = *fileData.AudioEnabled
	}
	if fileData.Volume != nil && *fileData.Volume >= 0 && *fileData.Volume <= 1 {
		settings.Volume = *fileData.Volume
	}
	if fileData.Notifications != nil {
		settings.Notifications = *fileData.Notifications
	}
	if fileData.Chime != nil {
		settings.Chime = *fileData.Chime
	}
	if fileData.StartCue != nil {
		settings.StartCue = *fileData.StartCue
	}

	if fileData.Playlists.Work != nil {
		settings.Playlists.Work = fileData.Playlists.Work
	}
	if fileData.Playlists.ShortBreak != nil {
		settings.Playlists.ShortBreak = fileData.Playlists.ShortBreak
	}
	if fileData.Playlists.LongBreak != nil {
		settings.Playlists.LongBreak = fileData.Playlists.LongBreak
	}

	settings.AutoAdvance = fileData.AutoAdvance
	settings.IsolatedTicks = fileData.IsolatedTicks
	settings.LaunchAtLogin = fileData.LaunchAtLogin
	settings.SoundDir = fileData.SoundDir
}
