// Package ticksource produces one countdown signal per interval.
//
// Two implementations share the Source contract: Local is driven by direct
// method calls and Isolated talks to a Worker goroutine exclusively through
// the message protocol defined by Command and Signal.
package ticksource

import "time"

// Action is the verb of an inbound Command.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionReset Action = "reset"
)

// Command is an inbound boundary message. Epoch tags every signal the
// command produces.
type Command struct {
	Action Action `json:"action"`
	Time   int    `json:"time,omitempty"`
	Epoch  uint64 `json:"epoch,omitempty"`
}

// Signal is an outbound boundary message. A tick carries the absolute
// remaining time; the terminal signal of a sequence has Expired set. Epoch
// is the value passed to the Start or Reset that produced it.
type Signal struct {
	Remaining int    `json:"remainingTime"`
	Expired   bool   `json:"timerEnded,omitempty"`
	Epoch     uint64 `json:"epoch,omitempty"`
}

// Source is a countdown tick producer.
type Source interface {
	// Start begins emitting ticks from seconds, tagged with epoch. It is a
	// no-op while a sequence is already active.
	Start(epoch uint64, seconds int)
	// Pause suspends emission.
	Pause()
	// Reset stops any sequence and reports seconds, tagged with epoch,
	// without starting.
	Reset(epoch uint64, seconds int)
	// Signals delivers ticks in order. The channel is closed by Close, or
	// earlier when the source is lost.
	Signals() <-chan Signal
	// Close releases the source.
	Close() error
}

const (
	defaultInterval = time.Second
	signalBuffer    = 16
)
