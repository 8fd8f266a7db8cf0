package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window        fyne.Window
	settings      Settings
	onSave        func(Settings)
	onCancel      func()
	work          *widget.Entry
	shortBreak    *widget.Entry
	longBreak     *widget.Entry
	longEvery     *widget.Entry
	repeats       *widget.Entry
	soundDir      *widget.Entry
	audio         *widget.Check
	notifications *widget.Check
	autoAdvance   *widget.Check
	launch        *widget.Check
	volume        *widget.Slider
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("pomobeat settings")

	prefs := &Window{
		window:        window,
		onSave:        onSave,
		work:          widget.NewEntry(),
		shortBreak:    widget.NewEntry(),
		longBreak:     widget.NewEntry(),
		longEvery:     widget.NewEntry(),
		repeats:       widget.NewEntry(),
		soundDir:      widget.NewEntry(),
		audio:         widget.NewCheck("Play ambient music while running", nil),
		notifications: widget.NewCheck("Desktop notifications", nil),
		autoAdvance:   widget.NewCheck("Switch mode when a session ends", nil),
		launch:        widget.NewCheck("Start at login", nil),
		volume:        widget.NewSlider(0, 1),
	}
	prefs.volume.Step = 0.05
	prefs.soundDir.SetPlaceHolder("folder with tracks and cues")
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Sessions", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Pomodoro"), prefs.work, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break after"), prefs.longEvery, widget.NewLabel("pomodoros")),
		prefs.autoAdvance,
		widget.NewLabelWithStyle("Sound", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.audio,
		widget.NewLabel("Volume"),
		prefs.volume,
		container.NewHBox(widget.NewLabel("Chimes"), prefs.repeats),
		widget.NewLabel("Sound folder"),
		prefs.soundDir,
		prefs.notifications,
		prefs.launch,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 520))
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.work.SetText(minutesText(settings.WorkDuration))
	prefs.shortBreak.SetText(minutesText(settings.ShortBreakDuration))
	prefs.longBreak.SetText(minutesText(settings.LongBreakDuration))
	prefs.longEvery.SetText(strconv.Itoa(settings.LongBreakEvery))
	prefs.repeats.SetText(strconv.Itoa(settings.AlertRepeats))
	prefs.soundDir.SetText(settings.SoundDir)
	prefs.audio.SetChecked(settings.AudioEnabled)
	prefs.notifications.SetChecked(settings.Notifications)
	prefs.autoAdvance.SetChecked(settings.AutoAdvance)
	prefs.launch.SetChecked(settings.LaunchAtLogin)
	prefs.volume.Value = settings.Volume
	prefs.volume.Refresh()
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if minutes, ok := parsePositiveInt(prefs.work.Text); ok {
		settings.WorkDuration = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.shortBreak.Text); ok {
		settings.ShortBreakDuration = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.longBreak.Text); ok {
		settings.LongBreakDuration = time.Duration(minutes) * time.Minute
	}
	if every, ok := parsePositiveInt(prefs.longEvery.Text); ok {
		settings.LongBreakEvery = every
	}
	if repeats, ok := parsePositiveInt(prefs.repeats.Text); ok {
		settings.AlertRepeats = repeats
	}

	settings.SoundDir = strings.TrimSpace(prefs.soundDir.Text)
	settings.AudioEnabled = prefs.audio.Checked
	settings.Notifications = prefs.notifications.Checked
	settings.AutoAdvance = prefs.autoAdvance.Checked
	settings.LaunchAtLogin = prefs.launch.Checked
	settings.Volume = prefs.volume.Value

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func minutesText(duration time.Duration) string {
	return fmt.Sprintf("%d", int(duration.Minutes()))
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
