package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"pomobeat/internal/core/model"
	"pomobeat/internal/core/session"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences func()
	OnToggleRun   func()
	OnReset       func()
	OnMode        func(model.Mode)
	OnNextTrack   func()
	OnPrevTrack   func()
	OnToggleAudio func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	runItem    *fyne.MenuItem
	resetItem  *fyne.MenuItem
	modeItems  map[model.Mode]*fyne.MenuItem
	trackItem  *fyne.MenuItem
	nextItem   *fyne.MenuItem
	prevItem   *fyne.MenuItem
	audioItem  *fyne.MenuItem
	prefsItem  *fyne.MenuItem
	quitItem   *fyne.MenuItem
	snapshot   session.Snapshot
}

// New creates a tray manager with the provided callbacks. A nil app keeps
// the menu off screen.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		modeItems: make(map[model.Mode]*fyne.MenuItem, len(model.Modes)),
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true
	manager.runItem = fyne.NewMenuItem("Start", invoke(callbacks.OnToggleRun))
	manager.resetItem = fyne.NewMenuItem("Reset", invoke(callbacks.OnReset))

	for _, mode := range model.Modes {
		manager.modeItems[mode] = fyne.NewMenuItem(mode.Label(), func() {
			if manager.callbacks.OnMode != nil {
				manager.callbacks.OnMode(mode)
			}
		})
	}

	manager.trackItem = fyne.NewMenuItem("Track: -", nil)
	manager.trackItem.Disabled = true
	manager.prevItem = fyne.NewMenuItem("Previous track", invoke(callbacks.OnPrevTrack))
	manager.nextItem = fyne.NewMenuItem("Next track", invoke(callbacks.OnNextTrack))
	manager.audioItem = fyne.NewMenuItem("Music", invoke(callbacks.OnToggleAudio))
	manager.prefsItem = fyne.NewMenuItem("Preferences", invoke(callbacks.OnPreferences))
	manager.quitItem = fyne.NewMenuItem("Quit", invoke(callbacks.OnQuit))

	manager.refreshMenu()
	return manager
}

// Apply renders a session snapshot into the menu.
func (manager *Manager) Apply(snapshot session.Snapshot) {
	manager.snapshot = snapshot

	manager.statusItem.Label = "Status: " + Status(snapshot)
	switch {
	case snapshot.Running:
		manager.runItem.Label = "Pause"
	case snapshot.Remaining < snapshot.Duration && snapshot.Remaining > 0:
		manager.runItem.Label = "Resume"
	default:
		manager.runItem.Label = "Start"
	}
	manager.runItem.Disabled = snapshot.Phase == session.PhaseExhausted ||
		(snapshot.Remaining == 0 && !snapshot.Running)

	for mode, item := range manager.modeItems {
		item.Checked = mode == snapshot.Mode
	}

	manager.audioItem.Checked = snapshot.AudioEnabled
	hasTracks := snapshot.TrackCount > 0
	manager.prevItem.Disabled = !hasTracks
	manager.nextItem.Disabled = !hasTracks
	if hasTracks {
		manager.trackItem.Label = fmt.Sprintf("Track: %d/%d", snapshot.Track+1, snapshot.TrackCount)
	} else {
		manager.trackItem.Label = "Track: -"
	}

	manager.refreshMenu()
}

// Status describes a snapshot in one line.
func Status(snapshot session.Snapshot) string {
	switch {
	case snapshot.ClockErr != nil:
		return "timer stopped, reset to continue"
	case snapshot.Phase == session.PhaseExhausted:
		return snapshot.Mode.Label() + " finished"
	case snapshot.Running:
		return fmt.Sprintf("%s %s", snapshot.Mode.Label(), FormatRemaining(snapshot.Remaining))
	default:
		return fmt.Sprintf("%s %s (paused)", snapshot.Mode.Label(), FormatRemaining(snapshot.Remaining))
	}
}

// FormatRemaining renders seconds as mm:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(manager.menu())
}

func (manager *Manager) menu() *fyne.Menu {
	return fyne.NewMenu("pomobeat",
		manager.statusItem,
		manager.runItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		manager.modeItems[model.ModeWork],
		manager.modeItems[model.ModeShortBreak],
		manager.modeItems[model.ModeLongBreak],
		fyne.NewMenuItemSeparator(),
		manager.trackItem,
		manager.prevItem,
		manager.nextItem,
		manager.audioItem,
		fyne.NewMenuItemSeparator(),
		manager.prefsItem,
		manager.quitItem,
	)
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}
