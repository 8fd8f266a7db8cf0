package main

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"pomobeat/internal/audio"
	"pomobeat/internal/core/alert"
	"pomobeat/internal/core/playlist"
	"pomobeat/internal/core/session"
	"pomobeat/internal/core/ticksource"
	"pomobeat/internal/storage"
	"pomobeat/internal/ui/preferences"
)

type engineRuntime struct {
	engine  *session.Engine
	backend *audio.Backend
	logger  zerolog.Logger

	mu sync.Mutex

	// audioEnabled is the last stored value, not the live toggle.
	audioEnabled bool
}

// startEngine builds and starts the session engine for settings. Audio is
// only wired when a sound directory is configured.
func startEngine(ctx context.Context, settings preferences.Settings, notifier alert.Notifier, logger zerolog.Logger) *engineRuntime {
	clock := clockwork.NewRealClock()
	runtime := &engineRuntime{logger: logger, audioEnabled: settings.AudioEnabled}
	config := settings.EngineConfig()

	var backend playlist.Backend
	if settings.SoundDir != "" {
		runtime.backend = audio.NewBackend(audio.Options{
			Dir:    settings.SoundDir,
			Volume: settings.Volume,
			Logger: logger,
		})
		backend = runtime.backend
	} else {
		logger.Info().Msg("no sound_dir configured, audio disabled")
	}

	runtime.engine = session.New(config, session.Options{
		Clock:         clock,
		NewTickSource: newTickSourceFactory(ctx, clock, config.TickInterval, settings.IsolatedTicks, logger),
		Backend:       backend,
		Chime:         playlist.NewOneShot(backend, settings.Chime),
		StartCue:      playlist.NewOneShot(backend, settings.StartCue),
		Notifier:      notifier,
		Logger:        logger,
	})

	if settings.AutoAdvance {
		policy := &session.AdvancePolicy{LongBreakEvery: settings.LongBreakEvery}
		go policy.Follow(ctx, runtime.engine.Subscribe(16), runtime.engine)
	}

	runtime.engine.Start()
	logger.Info().Bool("isolated_ticks", settings.IsolatedTicks).Bool("auto_advance", settings.AutoAdvance).Msg("session engine started")
	return runtime
}

// newTickSourceFactory builds local or worker-backed tick sources.
func newTickSourceFactory(ctx context.Context, clock clockwork.Clock, interval time.Duration, isolated bool, logger zerolog.Logger) func() ticksource.Source {
	if isolated {
		worker := ticksource.NewWorker(clock, interval, logger)
		return func() ticksource.Source {
			return ticksource.NewIsolated(ctx, worker)
		}
	}
	return func() ticksource.Source {
		return ticksource.NewLocal(clock, interval)
	}
}

// apply pushes reloaded settings into the running engine. The audio toggle
// is only overridden when the stored value changed.
func (runtime *engineRuntime) apply(settings preferences.Settings) {
	runtime.engine.UpdateConfig(settings.EngineConfig())

	runtime.mu.Lock()
	changed := settings.AudioEnabled != runtime.audioEnabled
	runtime.audioEnabled = settings.AudioEnabled
	runtime.mu.Unlock()
	if changed {
		runtime.engine.SetAudioEnabled(settings.AudioEnabled)
	}
}

// watch applies settings file changes until ctx ends.
func (runtime *engineRuntime) watch(ctx context.Context, configPath string, onChange func(preferences.Settings)) {
	watcher, err := storage.WatchSettings(configPath, runtime.logger)
	if err != nil {
		runtime.logger.Warn().Err(err).Msg("settings hot reload unavailable")
		return
	}
	go watcher.Run(ctx, func(settings preferences.Settings) {
		runtime.apply(settings)
		if onChange != nil {
			onChange(settings)
		}
	})
}

func (runtime *engineRuntime) Close() {
	runtime.engine.Close()
	if runtime.backend != nil {
		runtime.backend.Close()
	}
}
