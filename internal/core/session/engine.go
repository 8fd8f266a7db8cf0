// Package session implements the focus/break state machine that couples the
// countdown clock, the ambient playlist and the end-of-session alerts.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"pomobeat/internal/core/alert"
	"pomobeat/internal/core/countdown"
	"pomobeat/internal/core/model"
	"pomobeat/internal/core/playlist"
	"pomobeat/internal/core/ticksource"
)

const commandBuffer = 64

// Cue plays a one-shot sound.
type Cue interface {
	Play() error
}

// Options contains the collaborators of an Engine. Every field is optional.
type Options struct {
	Clock clockwork.Clock
	// NewTickSource builds the tick source. It is called again to replace a
	// lost source. The default is a Local source on Clock.
	NewTickSource func() ticksource.Source
	Backend       playlist.Backend
	Chime         alert.Chime
	StartCue      Cue
	Notifier      alert.Notifier
	Logger        zerolog.Logger
}

type command func(engine *Engine)

// Engine owns one session. All state is mutated by a single goroutine that
// drains the command queue and the tick signals; public methods only
// enqueue work and return immediately.
type Engine struct {
	options  Options
	logger   zerolog.Logger
	commands chan command
	stopCh   chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	events  []chan Event
	started bool
	closed  bool

	// Owned by the loop goroutine.
	config       model.EngineConfig
	mode         model.Mode
	phase        Phase
	audioEnabled bool
	clock        *countdown.Clock
	clockErr     error
	playlist     *playlist.Controller
	alerts       *alert.Sequencer
	run          *alert.Run
}

// New creates an idle Work session. Call Start to begin processing commands.
func New(config model.EngineConfig, options Options) *Engine {
	config = config.Normalize()
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.NewTickSource == nil {
		clock, interval := options.Clock, config.TickInterval
		options.NewTickSource = func() ticksource.Source {
			return ticksource.NewLocal(clock, interval)
		}
	}

	engine := &Engine{
		options:      options,
		logger:       options.Logger.With().Str("component", "session").Logger(),
		commands:     make(chan command, commandBuffer),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		config:       config,
		mode:         model.ModeWork,
		phase:        PhaseIdle,
		audioEnabled: config.AudioEnabled,
	}
	engine.clock = countdown.New(options.NewTickSource(), config.Durations.Seconds(model.ModeWork))
	engine.playlist = playlist.NewController(options.Backend, engine.refs(model.ModeWork), playlist.Options{
		ScrubThreshold: config.ScrubThreshold,
		OnEnded:        engine.onTrackEnded,
		Logger:         options.Logger,
	})
	engine.alerts = engine.newSequencer()
	return engine
}

// Start launches the command loop.
func (engine *Engine) Start() {
	engine.mu.Lock()
	if engine.started || engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.started = true
	engine.mu.Unlock()

	go engine.loop()
}

// Close stops the loop, cancels any alert run, releases the loaded track and
// the tick source, and closes observer channels.
func (engine *Engine) Close() {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.closed = true
	started := engine.started
	close(engine.stopCh)
	engine.mu.Unlock()

	if started {
		<-engine.done
		return
	}
	engine.shutdown()
	close(engine.done)
}

// Subscribe registers a new observer channel. Events are dropped for
// observers that fall behind.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	if engine.closed {
		close(ch)
	} else {
		engine.events = append(engine.events, ch)
	}
	engine.mu.Unlock()
	return ch
}

// ToggleRun starts an idle session or pauses a running one.
func (engine *Engine) ToggleRun() {
	engine.enqueue(func(engine *Engine) { engine.toggleRun() })
}

// ChangeMode switches to mode and leaves the session idle at full duration.
func (engine *Engine) ChangeMode(mode model.Mode) {
	engine.enqueue(func(engine *Engine) { engine.changeMode(mode) })
}

// Reset stops the session and restores the full duration of the mode.
func (engine *Engine) Reset() {
	engine.enqueue(func(engine *Engine) { engine.reset() })
}

// NextTrack advances the playlist.
func (engine *Engine) NextTrack() {
	engine.enqueue(func(engine *Engine) { engine.nextTrack() })
}

// PreviousTrack restarts the current track or moves back one.
func (engine *Engine) PreviousTrack() {
	engine.enqueue(func(engine *Engine) { engine.previousTrack() })
}

// SetAudioEnabled turns ambient playback on or off.
func (engine *Engine) SetAudioEnabled(enabled bool) {
	engine.enqueue(func(engine *Engine) { engine.setAudioEnabled(enabled) })
}

// UpdateConfig applies new durations, playlists and alert settings. The
// tick interval only applies to tick sources created afterwards.
func (engine *Engine) UpdateConfig(config model.EngineConfig) {
	engine.enqueue(func(engine *Engine) { engine.updateConfig(config) })
}

// Snapshot returns the state after every previously queued command has run.
func (engine *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	engine.enqueue(func(engine *Engine) { reply <- engine.snapshot() })
	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-engine.done:
		return Snapshot{}, fmt.Errorf("snapshot: engine closed")
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (engine *Engine) enqueue(cmd command) {
	select {
	case engine.commands <- cmd:
	case <-engine.stopCh:
	}
}

func (engine *Engine) loop() {
	defer close(engine.done)

	for {
		var signals <-chan ticksource.Signal
		if engine.clockErr == nil {
			signals = engine.clock.Signals()
		}

		select {
		case <-engine.stopCh:
			engine.shutdown()
			return
		case cmd := <-engine.commands:
			cmd(engine)
		case signal, ok := <-signals:
			if !ok {
				engine.clockLost()
				continue
			}
			engine.handleSignal(signal)
		}
	}
}

func (engine *Engine) shutdown() {
	engine.cancelAlert()
	engine.playlist.Close()
	if err := engine.clock.Close(); err != nil {
		engine.logger.Warn().Err(err).Msg("close tick source")
	}

	engine.mu.Lock()
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

func (engine *Engine) toggleRun() {
	switch engine.phase {
	case PhaseExhausted:
		engine.invalid("toggle run while exhausted")
	case PhaseRunning:
		engine.clock.Pause()
		engine.phase = PhaseIdle
		engine.syncAudio()
		engine.emit(EventStateChange, "")
	default:
		if engine.clockErr != nil {
			engine.logger.Warn().Err(engine.clockErr).Msg("toggle run rejected")
			engine.emit(EventClockFailure, engine.clockErr.Error())
			return
		}
		engine.cancelAlert()
		if !engine.clock.Start() {
			engine.invalid("toggle run with no time remaining")
			return
		}
		engine.phase = PhaseRunning
		if engine.mode != model.ModeWork && engine.options.StartCue != nil {
			if err := engine.options.StartCue.Play(); err != nil {
				engine.logger.Warn().Err(err).Msg("start cue failed")
			}
		}
		engine.syncAudio()
		engine.emit(EventStateChange, "")
	}
}

func (engine *Engine) changeMode(mode model.Mode) {
	if !mode.Valid() {
		engine.invalid(fmt.Sprintf("change to unknown mode %q", mode))
		return
	}
	engine.cancelAlert()
	previous := engine.mode
	engine.mode = mode
	engine.resetClock(engine.config.Durations.Seconds(mode))
	engine.phase = PhaseIdle
	if mode != previous {
		engine.playlist.Switch(engine.refs(mode))
	}
	engine.syncAudio()
	engine.emit(EventStateChange, "")
}

func (engine *Engine) reset() {
	engine.cancelAlert()
	engine.resetClock(engine.config.Durations.Seconds(engine.mode))
	engine.phase = PhaseIdle
	engine.syncAudio()
	engine.emit(EventStateChange, "")
}

func (engine *Engine) nextTrack() {
	if err := engine.playlist.Next(); err != nil {
		engine.logger.Warn().Err(err).Msg("next track")
	}
	engine.emit(EventTrackChange, "")
}

func (engine *Engine) previousTrack() {
	if err := engine.playlist.Previous(); err != nil {
		engine.logger.Warn().Err(err).Msg("previous track")
	}
	engine.emit(EventTrackChange, "")
}

func (engine *Engine) setAudioEnabled(enabled bool) {
	engine.audioEnabled = enabled
	engine.syncAudio()
	engine.emit(EventStateChange, "")
}

func (engine *Engine) updateConfig(config model.EngineConfig) {
	config = config.Normalize()
	previous := engine.config
	engine.config = config
	engine.alerts = engine.newSequencer()
	engine.playlist.SetScrubThreshold(config.ScrubThreshold)

	if !slices.Equal(previous.Playlists.For(engine.mode), config.Playlists.For(engine.mode)) {
		engine.playlist.Switch(engine.refs(engine.mode))
	}

	oldDuration := previous.Durations.Seconds(engine.mode)
	newDuration := config.Durations.Seconds(engine.mode)
	remaining := engine.clock.Remaining()
	switch engine.phase {
	case PhaseIdle:
		if engine.run == nil && (remaining == oldDuration || remaining > newDuration) {
			engine.resetClock(newDuration)
		}
	case PhaseRunning:
		if remaining > newDuration {
			engine.resetClock(newDuration)
			engine.clock.Start()
		}
	}
	engine.syncAudio()
	engine.emit(EventStateChange, "config updated")
}

func (engine *Engine) handleSignal(signal ticksource.Signal) {
	update := engine.clock.Handle(signal)
	switch {
	case update.Exhausted:
		engine.exhaust()
	case update.Ticked:
		engine.emit(EventTick, "")
	}
}

func (engine *Engine) exhaust() {
	engine.phase = PhaseExhausted
	engine.syncAudio()
	engine.logger.Info().Str("mode", string(engine.mode)).Msg("session exhausted")

	engine.run = engine.alerts.Start(engine.mode, func(run *alert.Run) {
		go engine.enqueue(func(engine *Engine) { engine.alertFinished(run) })
	})
	engine.emit(EventExhausted, alert.Message(engine.mode))
}

func (engine *Engine) alertFinished(run *alert.Run) {
	if engine.run != run {
		return
	}
	engine.run = nil
	if engine.phase == PhaseExhausted {
		engine.phase = PhaseIdle
	}
	engine.emit(EventAlertFinished, "")
}

func (engine *Engine) onTrackEnded(generation uint64) {
	engine.enqueue(func(engine *Engine) { engine.trackEnded(generation) })
}

func (engine *Engine) trackEnded(generation uint64) {
	advanced, err := engine.playlist.TrackEnded(generation, engine.phase == PhaseRunning)
	if err != nil {
		engine.logger.Warn().Err(err).Msg("advance after track end")
	}
	if advanced {
		engine.emit(EventTrackChange, "")
	}
}

func (engine *Engine) clockLost() {
	engine.clockErr = fmt.Errorf("%w: tick signal channel closed", ErrClockUnavailable)
	engine.logger.Error().Err(engine.clockErr).Msg("countdown halted")
	engine.clock.Pause()
	if engine.phase == PhaseRunning {
		engine.phase = PhaseIdle
	}
	engine.syncAudio()
	engine.emit(EventClockFailure, engine.clockErr.Error())
}

// resetClock restores seconds, replacing a lost tick source first.
func (engine *Engine) resetClock(seconds int) {
	if engine.clockErr != nil {
		if err := engine.clock.Close(); err != nil {
			engine.logger.Debug().Err(err).Msg("close lost tick source")
		}
		engine.clock = countdown.New(engine.options.NewTickSource(), seconds)
		engine.clockErr = nil
		engine.logger.Info().Msg("tick source replaced")
	}
	engine.clock.Reset(seconds)
}

func (engine *Engine) cancelAlert() {
	if engine.run == nil {
		return
	}
	engine.run.Cancel()
	engine.run = nil
	if engine.phase == PhaseExhausted {
		engine.phase = PhaseIdle
	}
}

func (engine *Engine) syncAudio() {
	if engine.phase == PhaseRunning && engine.audioEnabled {
		if err := engine.playlist.LoadCurrent(); err != nil {
			engine.logger.Warn().Err(err).Msg("ambient audio unavailable")
			return
		}
		engine.playlist.Play()
		return
	}
	engine.playlist.Pause()
}

func (engine *Engine) refs(mode model.Mode) []string {
	if engine.options.Backend == nil {
		return nil
	}
	return engine.config.Playlists.For(mode)
}

func (engine *Engine) newSequencer() *alert.Sequencer {
	return alert.NewSequencer(alert.Options{
		Clock:    engine.options.Clock,
		Chime:    engine.options.Chime,
		Notifier: engine.options.Notifier,
		Repeats:  engine.config.Alert.Repeats,
		Interval: engine.config.Alert.Interval,
		Logger:   engine.options.Logger,
	})
}

func (engine *Engine) invalid(reason string) {
	engine.logger.Debug().Err(ErrInvalidTransition).Str("state", engine.snapshot().State()).Msg(reason)
}

func (engine *Engine) snapshot() Snapshot {
	state := engine.playlist.State()
	return Snapshot{
		Mode:         engine.mode,
		Phase:        engine.phase,
		Remaining:    engine.clock.Remaining(),
		Duration:     engine.config.Durations.Seconds(engine.mode),
		Running:      engine.phase == PhaseRunning,
		AudioEnabled: engine.audioEnabled,
		Track:        state.Index,
		TrackCount:   state.Count,
		Playing:      state.Playing,
		AlertActive:  engine.run != nil && engine.run.Active(),
		ClockErr:     engine.clockErr,
	}
}

func (engine *Engine) emit(eventType EventType, message string) {
	event := Event{
		Type:     eventType,
		Snapshot: engine.snapshot(),
		Message:  message,
		At:       engine.options.Clock.Now(),
	}

	engine.mu.Lock()
	events := append([]chan Event(nil), engine.events...)
	engine.mu.Unlock()
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}

