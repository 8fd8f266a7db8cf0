package model

import (
	"fmt"
	"strings"
)

// Mode is the kind of session being timed.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeWork, ModeShortBreak, ModeLongBreak}

// Valid reports whether mode is one of the known modes.
func (mode Mode) Valid() bool {
	switch mode {
	case ModeWork, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// Label returns a human readable name.
func (mode Mode) Label() string {
	switch mode {
	case ModeWork:
		return "Pomodoro"
	case ModeShortBreak:
		return "Short break"
	case ModeLongBreak:
		return "Long break"
	default:
		return string(mode)
	}
}

// ParseMode converts a settings or CLI value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "work", "pomodoro":
		return ModeWork, nil
	case "short_break", "short", "shortbreak":
		return ModeShortBreak, nil
	case "long_break", "long", "longbreak":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("unknown mode %q", value)
}
