package alert

import (
	"context"
	"errors"

	"pomobeat/internal/core/model"
)

// ErrPermissionDenied indicates the user refused notifications.
var ErrPermissionDenied = errors.New("notification permission denied")

// Permission is the notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier is the external notification delivery capability.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(title, body string) error
}

// Title is the notification title used for every session end.
const Title = "Pomodoro Timer"

// Message returns the notification body for the mode that just ended.
func Message(mode model.Mode) string {
	switch mode {
	case model.ModeWork:
		return "Pomodoro is up! Whoo!"
	case model.ModeShortBreak:
		return "Short break is over!"
	case model.ModeLongBreak:
		return "Long break is over. Work time! Come on!"
	default:
		return "Timer ended!"
	}
}

// StaticNotifier has a fixed permission and forwards Show to a function.
type StaticNotifier struct {
	State   Permission
	Deliver func(title, body string) error
}

// Permission implements Notifier.
func (notifier StaticNotifier) Permission() Permission {
	if notifier.State == "" {
		return PermissionDefault
	}
	return notifier.State
}

// RequestPermission implements Notifier. A default state is granted when a
// delivery function exists.
func (notifier StaticNotifier) RequestPermission(context.Context) (Permission, error) {
	if notifier.State == "" || notifier.State == PermissionDefault {
		if notifier.Deliver != nil {
			return PermissionGranted, nil
		}
		return PermissionDenied, nil
	}
	return notifier.State, nil
}

// Show implements Notifier.
func (notifier StaticNotifier) Show(title, body string) error {
	if notifier.Deliver == nil {
		return ErrPermissionDenied
	}
	return notifier.Deliver(title, body)
}
