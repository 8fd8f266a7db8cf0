package preferences

import (
	"time"

	"pomobeat/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	WorkDuration       time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration

	AlertRepeats   int
	AlertInterval  time.Duration
	ScrubThreshold time.Duration

	AudioEnabled  bool
	Volume        float64
	Notifications bool

	AutoAdvance    bool
	LongBreakEvery int
	IsolatedTicks  bool
	LaunchAtLogin  bool

	SoundDir  string
	Chime     string
	StartCue  string
	Playlists model.Playlists
}

// DefaultSettings returns default settings for pomobeat.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:       25 * time.Minute,
		ShortBreakDuration: 5 * time.Minute,
		LongBreakDuration:  15 * time.Minute,
		AlertRepeats:       3,
		AlertInterval:      2 * time.Second,
		ScrubThreshold:     15 * time.Second,
		AudioEnabled:       true,
		Volume:             0.8,
		Notifications:      true,
		AutoAdvance:        false,
		LongBreakEvery:     4,
		Chime:              "bell.mp3",
		StartCue:           "break-start.mp3",
		Playlists: model.Playlists{
			Work:       []string{"dreaming.mp3", "lost.mp3", "magenta.mp3", "mississippi.mp3"},
			ShortBreak: []string{"lowkey.mp3", "meadow.mp3"},
			LongBreak:  []string{"stars.mp3", "tides.mp3", "lantern.mp3"},
		},
	}
}

// EngineConfig converts settings to model.EngineConfig.
func (settings Settings) EngineConfig() model.EngineConfig {
	return model.EngineConfig{
		Durations: model.Durations{
			Work:       settings.WorkDuration,
			ShortBreak: settings.ShortBreakDuration,
			LongBreak:  settings.LongBreakDuration,
		},
		Alert: model.AlertConfig{
			Repeats:  settings.AlertRepeats,
			Interval: settings.AlertInterval,
		},
		Playlists:      settings.Playlists,
		ScrubThreshold: settings.ScrubThreshold,
		TickInterval:   time.Second,
		AudioEnabled:   settings.AudioEnabled,
	}.Normalize()
}
