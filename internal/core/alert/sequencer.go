// Package alert sequences the end-of-session chimes and notification.
package alert

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"pomobeat/internal/core/model"
)

// Chime plays one short alert sound without blocking.
type Chime interface {
	Play() error
}

// Options configures a Sequencer.
type Options struct {
	Clock    clockwork.Clock
	Chime    Chime
	Notifier Notifier
	Repeats  int
	Interval time.Duration
	Logger   zerolog.Logger
}

// Sequencer starts alert runs.
type Sequencer struct {
	options Options
	logger  zerolog.Logger
}

// NewSequencer creates a sequencer. Missing values fall back to three
// chimes two seconds apart on the real clock.
func NewSequencer(options Options) *Sequencer {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Repeats <= 0 {
		options.Repeats = 3
	}
	if options.Interval <= 0 {
		options.Interval = 2 * time.Second
	}
	return &Sequencer{
		options: options,
		logger:  options.Logger.With().Str("component", "alert").Logger(),
	}
}

// Run is one bounded chime sequence.
type Run struct {
	ID   string
	Mode model.Mode

	sequencer *Sequencer
	onDone    func(*Run)
	ctx       context.Context
	cancel    context.CancelFunc

	mu        sync.Mutex
	remaining int
	timer     clockwork.Timer
	finished  bool
	cancelled bool
}

// Start plays the first chime immediately and schedules the rest. onDone is
// called once, from any goroutine, after the last chime; it is not called
// for a cancelled run. The notification is delivered concurrently.
func (sequencer *Sequencer) Start(mode model.Mode, onDone func(*Run)) *Run {
	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		sequencer: sequencer,
		onDone:    onDone,
		ctx:       ctx,
		cancel:    cancel,
		remaining: sequencer.options.Repeats,
	}
	sequencer.logger.Info().Str("run", run.ID).Str("mode", string(mode)).Msg("alert run started")

	go sequencer.notify(run)
	run.chime()
	return run
}

// RepeatsRemaining returns the chimes not yet played.
func (run *Run) RepeatsRemaining() int {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.remaining
}

// Active reports whether chimes are still pending.
func (run *Run) Active() bool {
	run.mu.Lock()
	defer run.mu.Unlock()
	return !run.finished && !run.cancelled
}

// Cancel clears pending chimes and suppresses a notification that has not
// been shown yet. It reports whether chimes were still pending.
func (run *Run) Cancel() bool {
	run.mu.Lock()
	pending := !run.finished && !run.cancelled
	run.cancelled = true
	if run.timer != nil {
		run.timer.Stop()
		run.timer = nil
	}
	run.mu.Unlock()

	run.cancel()
	if pending {
		run.sequencer.logger.Debug().Str("run", run.ID).Msg("alert run cancelled")
	}
	return pending
}

func (run *Run) chime() {
	run.mu.Lock()
	if run.finished || run.cancelled {
		run.mu.Unlock()
		return
	}

	sequencer := run.sequencer
	if sequencer.options.Chime != nil {
		if err := sequencer.options.Chime.Play(); err != nil {
			sequencer.logger.Warn().Err(err).Str("run", run.ID).Msg("chime failed")
		}
	}
	run.remaining--
	if run.remaining > 0 {
		run.timer = sequencer.options.Clock.AfterFunc(sequencer.options.Interval, run.chime)
		run.mu.Unlock()
		return
	}
	run.finished = true
	run.timer = nil
	run.mu.Unlock()

	sequencer.logger.Debug().Str("run", run.ID).Msg("alert run finished")
	if run.onDone != nil {
		run.onDone(run)
	}
}

func (sequencer *Sequencer) notify(run *Run) {
	notifier := sequencer.options.Notifier
	if notifier == nil {
		return
	}

	permission := notifier.Permission()
	if permission == PermissionDefault {
		requested, err := notifier.RequestPermission(run.ctx)
		if err != nil {
			sequencer.logger.Warn().Err(err).Msg("notification permission request failed")
			return
		}
		permission = requested
	}
	if permission != PermissionGranted {
		sequencer.logger.Debug().Err(ErrPermissionDenied).Str("run", run.ID).Msg("notification skipped")
		return
	}
	if run.ctx.Err() != nil {
		return
	}

	if err := notifier.Show(Title, Message(run.Mode)); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			sequencer.logger.Debug().Err(err).Msg("notification skipped")
			return
		}
		sequencer.logger.Warn().Err(err).Msg("notification failed")
	}
}
