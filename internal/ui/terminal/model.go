// Package terminal renders the session engine as a full-screen terminal UI.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomobeat/internal/core/model"
	"pomobeat/internal/core/session"
)

// Controller is the command surface of session.Engine used by the UI.
type Controller interface {
	ToggleRun()
	ChangeMode(mode model.Mode)
	Reset()
	NextTrack()
	PreviousTrack()
	SetAudioEnabled(enabled bool)
}

// Messages
type eventMsg session.Event
type eventsClosedMsg struct{}
type notificationMsg struct{ title, body string }

// Model is the bubbletea model of one session.
type Model struct {
	controller Controller
	events     <-chan session.Event
	snapshot   session.Snapshot
	progress   progress.Model
	help       help.Model
	banner     string
	width      int
	quitting   bool
}

// New creates a model fed by events. initial is rendered until the first
// event arrives.
func New(controller Controller, events <-chan session.Event, initial session.Snapshot) Model {
	return Model{
		controller: controller,
		events:     events,
		snapshot:   initial,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:       help.New(),
	}
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case eventMsg:
		m.snapshot = msg.Snapshot
		switch msg.Type {
		case session.EventExhausted:
			m.banner = msg.Message
		case session.EventClockFailure:
			m.banner = "Timer stopped: " + msg.Message
		case session.EventStateChange:
			if msg.Snapshot.Running {
				m.banner = ""
			}
		}
		return m, waitForEvent(m.events)

	case notificationMsg:
		m.banner = msg.body
		return m, nil

	case eventsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Toggle):
		m.controller.ToggleRun()
	case key.Matches(msg, keys.Reset):
		m.controller.Reset()
	case key.Matches(msg, keys.Work):
		m.controller.ChangeMode(model.ModeWork)
	case key.Matches(msg, keys.ShortBreak):
		m.controller.ChangeMode(model.ModeShortBreak)
	case key.Matches(msg, keys.LongBreak):
		m.controller.ChangeMode(model.ModeLongBreak)
	case key.Matches(msg, keys.Next):
		m.controller.NextTrack()
	case key.Matches(msg, keys.Previous):
		m.controller.PreviousTrack()
	case key.Matches(msg, keys.Music):
		m.controller.SetAudioEnabled(!m.snapshot.AudioEnabled)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snapshot := m.snapshot

	tabs := make([]string, 0, len(model.Modes))
	for _, mode := range model.Modes {
		style := modeStyle
		if mode == snapshot.Mode {
			style = activeModeStyle
		}
		tabs = append(tabs, style.Render(mode.Label()))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pomobeat"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")
	b.WriteString(clockStyle.Render(formatClock(snapshot.Remaining)))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(snapshot.Progress()))
	b.WriteString("\n\n")
	b.WriteString(stateLine(snapshot))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(trackLine(snapshot)))
	b.WriteString("\n")
	if m.banner != "" {
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render(m.banner))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

func stateLine(snapshot session.Snapshot) string {
	switch {
	case snapshot.ClockErr != nil:
		return errorStyle.Render("stopped, press r to reset")
	case snapshot.Phase == session.PhaseExhausted:
		return runningStyle.Render("time is up")
	case snapshot.Running:
		return runningStyle.Render("running")
	default:
		return pausedStyle.Render("paused")
	}
}

func trackLine(snapshot session.Snapshot) string {
	music := "off"
	if snapshot.AudioEnabled {
		music = "on"
	}
	if snapshot.TrackCount == 0 {
		return fmt.Sprintf("music %s, no tracks", music)
	}
	return fmt.Sprintf("music %s, track %d/%d", music, snapshot.Track+1, snapshot.TrackCount)
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
