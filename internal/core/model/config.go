package model

import "time"

// Durations holds the fixed session length of every mode.
type Durations struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// For returns the configured duration of mode.
func (durations Durations) For(mode Mode) time.Duration {
	switch mode {
	case ModeShortBreak:
		return durations.ShortBreak
	case ModeLongBreak:
		return durations.LongBreak
	default:
		return durations.Work
	}
}

// Seconds returns the duration of mode in whole seconds.
func (durations Durations) Seconds(mode Mode) int {
	return int(durations.For(mode) / time.Second)
}

// AlertConfig defines the end-of-session chime run.
type AlertConfig struct {
	Repeats  int
	Interval time.Duration
}

// Playlists maps every mode to its ordered track source refs.
type Playlists struct {
	Work       []string
	ShortBreak []string
	LongBreak  []string
}

// For returns the source refs of the playlist attached to mode.
func (playlists Playlists) For(mode Mode) []string {
	switch mode {
	case ModeShortBreak:
		return playlists.ShortBreak
	case ModeLongBreak:
		return playlists.LongBreak
	default:
		return playlists.Work
	}
}

// EngineConfig contains runtime settings for the session engine.
type EngineConfig struct {
	Durations      Durations
	Alert          AlertConfig
	Playlists      Playlists
	ScrubThreshold time.Duration
	TickInterval   time.Duration
	AudioEnabled   bool
}

// DefaultEngineConfig returns the classic 25/5/15 pomodoro setup.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Durations: Durations{
			Work:       25 * time.Minute,
			ShortBreak: 5 * time.Minute,
			LongBreak:  15 * time.Minute,
		},
		Alert: AlertConfig{
			Repeats:  3,
			Interval: 2 * time.Second,
		},
		ScrubThreshold: 15 * time.Second,
		TickInterval:   time.Second,
		AudioEnabled:   true,
	}
}

// Normalize fills zero or negative values with defaults.
func (config EngineConfig) Normalize() EngineConfig {
	defaults := DefaultEngineConfig()
	if config.Durations.Work < time.Second {
		config.Durations.Work = defaults.Durations.Work
	}
	if config.Durations.ShortBreak < time.Second {
		config.Durations.ShortBreak = defaults.Durations.ShortBreak
	}
	if config.Durations.LongBreak < time.Second {
		config.Durations.LongBreak = defaults.Durations.LongBreak
	}
	if config.Alert.Repeats <= 0 {
		config.Alert.Repeats = defaults.Alert.Repeats
	}
	if config.Alert.Interval <= 0 {
		config.Alert.Interval = defaults.Alert.Interval
	}
	if config.ScrubThreshold <= 0 {
		config.ScrubThreshold = defaults.ScrubThreshold
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	return config
}
