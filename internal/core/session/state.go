package session

import (
	"errors"

	"pomobeat/internal/core/model"
)

var (
	// ErrInvalidTransition marks a command that has no effect in the
	// current state. Such commands are ignored.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrClockUnavailable indicates the tick source was lost.
	ErrClockUnavailable = errors.New("clock unavailable")
)

// Phase is the coarse engine state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseExhausted Phase = "exhausted"
)

// Snapshot is a copy of the engine state.
type Snapshot struct {
	Mode         model.Mode
	Phase        Phase
	Remaining    int
	Duration     int
	Running      bool
	AudioEnabled bool
	Track        int
	TrackCount   int
	Playing      bool
	AlertActive  bool
	ClockErr     error
}

// State names the state machine node, for example "running_work".
func (snapshot Snapshot) State() string {
	if snapshot.Phase == PhaseExhausted {
		return string(PhaseExhausted)
	}
	return string(snapshot.Phase) + "_" + string(snapshot.Mode)
}

// Progress returns the elapsed fraction of the session in [0, 1].
func (snapshot Snapshot) Progress() float64 {
	if snapshot.Duration <= 0 {
		return 1
	}
	progress := float64(snapshot.Duration-snapshot.Remaining) / float64(snapshot.Duration)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
