package terminal

import (
	tea "github.com/charmbracelet/bubbletea"

	"pomobeat/internal/core/alert"
)

// NewNotifier shows alerts as a banner inside the running program. send is
// usually tea.Program.Send; a nil send denies notifications.
func NewNotifier(send func(tea.Msg)) alert.StaticNotifier {
	if send == nil {
		return alert.StaticNotifier{State: alert.PermissionDenied}
	}
	return alert.StaticNotifier{
		State: alert.PermissionGranted,
		Deliver: func(title, body string) error {
			send(notificationMsg{title: title, body: body})
			return nil
		},
	}
}
