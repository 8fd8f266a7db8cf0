// Package countdown tracks the remaining seconds of a session on top of a
// tick source.
package countdown

import "pomobeat/internal/core/ticksource"

// Update describes the effect of a handled signal.
type Update struct {
	Remaining int
	Ticked    bool
	Exhausted bool
}

// Clock wraps a tick source. It is owned by a single goroutine: the owner
// calls Handle for every signal read from Signals.
type Clock struct {
	source    ticksource.Source
	remaining int
	running   bool
	exhausted bool
	// epoch advances on every Start and Reset; signals tagged with an
	// older epoch were emitted by a superseded sequence.
	epoch     uint64
}

// New creates a stopped clock holding seconds.
func New(source ticksource.Source, seconds int) *Clock {
	if seconds < 0 {
		seconds = 0
	}
	return &Clock{source: source, remaining: seconds}
}

// Start resumes counting. It is rejected when nothing remains or the clock
// is exhausted and has not been reset.
func (clock *Clock) Start() bool {
	if clock.remaining == 0 || clock.exhausted {
		return false
	}
	if clock.running {
		return true
	}
	clock.running = true
	clock.epoch++
	clock.source.Start(clock.epoch, clock.remaining)
	return true
}

// Pause stops counting and keeps the remaining time.
func (clock *Clock) Pause() {
	if !clock.running {
		return
	}
	clock.running = false
	clock.source.Pause()
}

// Reset stops counting and restores seconds.
func (clock *Clock) Reset(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	clock.running = false
	clock.exhausted = false
	clock.remaining = seconds
	clock.epoch++
	clock.source.Reset(clock.epoch, seconds)
}

// Remaining returns the remaining whole seconds.
func (clock *Clock) Remaining() int {
	return clock.remaining
}

// Running reports whether the clock is counting.
func (clock *Clock) Running() bool {
	return clock.running
}

// Exhausted reports whether the clock reached zero since the last reset.
func (clock *Clock) Exhausted() bool {
	return clock.exhausted
}

// Signals exposes the tick source channel.
func (clock *Clock) Signals() <-chan ticksource.Signal {
	return clock.source.Signals()
}

// Close releases the tick source.
func (clock *Clock) Close() error {
	clock.running = false
	return clock.source.Close()
}

// Handle applies a signal. Signals received while stopped, or tagged with
// another epoch, belong to a finished or superseded sequence and are
// ignored.
func (clock *Clock) Handle(signal ticksource.Signal) Update {
	if !clock.running || clock.exhausted || signal.Epoch != clock.epoch {
		return Update{Remaining: clock.remaining}
	}

	if signal.Expired || signal.Remaining <= 0 {
		clock.remaining = 0
		clock.running = false
		clock.exhausted = true
		return Update{Exhausted: true}
	}

	remaining := signal.Remaining
	if remaining > clock.remaining {
		// A tick never adds time; a larger value is a stale echo.
		return Update{Remaining: clock.remaining}
	}
	clock.remaining = remaining
	return Update{Remaining: remaining, Ticked: true}
}
