package tray

import (
	"context"

	"fyne.io/fyne/v2"

	"pomobeat/internal/core/alert"
)

// Notifier delivers alerts as desktop notifications. Desktop drivers do not
// prompt, so permission is the user's notifications setting.
type Notifier struct {
	app     fyne.App
	enabled bool
}

// NewNotifier creates a notifier for app.
func NewNotifier(app fyne.App, enabled bool) *Notifier {
	return &Notifier{app: app, enabled: enabled}
}

// Permission implements alert.Notifier.
func (notifier *Notifier) Permission() alert.Permission {
	if notifier.enabled && notifier.app != nil {
		return alert.PermissionGranted
	}
	return alert.PermissionDenied
}

// RequestPermission implements alert.Notifier.
func (notifier *Notifier) RequestPermission(context.Context) (alert.Permission, error) {
	return notifier.Permission(), nil
}

// Show implements alert.Notifier.
func (notifier *Notifier) Show(title, body string) error {
	if notifier.Permission() != alert.PermissionGranted {
		return alert.ErrPermissionDenied
	}
	fyne.Do(func() {
		notifier.app.SendNotification(fyne.NewNotification(title, body))
	})
	return nil
}
