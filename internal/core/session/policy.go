package session

import (
	"context"

	"pomobeat/internal/core/model"
)

// ModeChanger is the subset of Engine used by AdvancePolicy.
type ModeChanger interface {
	ChangeMode(mode model.Mode)
}

// AdvancePolicy picks the mode that follows a finished session: breaks lead
// back to Work, and every LongBreakEvery-th completed Work session earns a
// long break.
type AdvancePolicy struct {
	LongBreakEvery int

	completed int
}

// Next records that ended finished and returns the mode to switch to.
func (policy *AdvancePolicy) Next(ended model.Mode) model.Mode {
	if ended != model.ModeWork {
		return model.ModeWork
	}
	policy.completed++
	every := policy.LongBreakEvery
	if every <= 0 {
		every = 4
	}
	if policy.completed%every == 0 {
		return model.ModeLongBreak
	}
	return model.ModeShortBreak
}

// Completed returns the number of Work sessions seen so far.
func (policy *AdvancePolicy) Completed() int {
	return policy.completed
}

// Follow consumes events until ctx ends or the channel closes, switching
// modes after each alert run finishes.
func (policy *AdvancePolicy) Follow(ctx context.Context, events <-chan Event, target ModeChanger) {
	var ended model.Mode
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case EventExhausted:
				ended = event.Snapshot.Mode
			case EventAlertFinished:
				if ended == "" {
					continue
				}
				target.ChangeMode(policy.Next(ended))
				ended = ""
			case EventStateChange:
				// A manual reset or mode change during the alert drops it.
				if event.Snapshot.Phase != PhaseExhausted && !event.Snapshot.AlertActive {
					ended = ""
				}
			}
		}
	}
}
