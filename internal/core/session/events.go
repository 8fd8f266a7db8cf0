package session

import "time"

// EventType defines the type of Engine event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventTick          EventType = "tick"
	EventExhausted     EventType = "exhausted"
	EventAlertFinished EventType = "alert_finished"
	EventTrackChange   EventType = "track_change"
	EventClockFailure  EventType = "clock_failure"
)

// Event represents an Engine update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Message  string
	At       time.Time
}
