package terminal

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomobeat/internal/core/alert"
	"pomobeat/internal/core/model"
	"pomobeat/internal/core/session"
)

type recordingController struct {
	calls []string
}

func (c *recordingController) ToggleRun() { c.calls = append(c.calls, "toggle") }
func (c *recordingController) ChangeMode(m model.Mode) { c.calls = append(c.calls, "mode:"+string(m)) }
func (c *recordingController) Reset() { c.calls = append(c.calls, "reset") }
func (c *recordingController) NextTrack() { c.calls = append(c.calls, "next") }
func (c *recordingController) PreviousTrack() { c.calls = append(c.calls, "previous") }
func (c *recordingController) SetAudioEnabled(enabled bool) {
	if enabled {
		c.calls = append(c.calls, "audio:on")
	} else {
		c.calls = append(c.calls, "audio:off")
	}
}

func runes(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

func idleWork() session.Snapshot {
	return session.Snapshot{Mode: model.ModeWork, Phase: session.PhaseIdle, Remaining: 1500, Duration: 1500, AudioEnabled: true}
}

func TestModel_KeysDriveController(t *testing.T) {
	controller := &recordingController{}
	var m tea.Model = New(controller, make(chan session.Event), idleWork())

	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeySpace},
		runes("r"),
		runes("2"),
		runes("3"),
		runes("1"),
		runes("n"),
		{Type: tea.KeyLeft},
		runes("m"),
	} {
		m, _ = m.Update(msg)
	}

	assert.Equal(t, []string{
		"toggle", "reset", "mode:short_break", "mode:long_break", "mode:work", "next", "previous", "audio:off",
	}, controller.calls)
}

func TestModel_QuitKey(t *testing.T) {
	m := New(&recordingController{}, make(chan session.Event), idleWork())
	updated, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.View())
}

func TestModel_EventsUpdateView(t *testing.T) {
	events := make(chan session.Event, 1)
	m := New(&recordingController{}, events, idleWork())
	assert.Contains(t, m.View(), "25:00")
	assert.Contains(t, m.View(), "paused")

	running := idleWork()
	running.Phase = session.PhaseRunning
	running.Running = true
	running.Remaining = 1499
	running.TrackCount = 4
	updated, cmd := m.Update(eventMsg(session.Event{Type: session.EventTick, Snapshot: running}))
	require.NotNil(t, cmd, "model keeps listening for events")
	view := updated.View()
	assert.Contains(t, view, "24:59")
	assert.Contains(t, view, "running")
	assert.Contains(t, view, "track 1/4")

	done := running
	done.Phase = session.PhaseExhausted
	done.Running = false
	done.Remaining = 0
	updated, _ = updated.Update(eventMsg(session.Event{Type: session.EventExhausted, Snapshot: done, Message: alert.Message(model.ModeWork)}))
	assert.Contains(t, updated.View(), "Pomodoro is up! Whoo!")

	events <- session.Event{Type: session.EventAlertFinished}
	msg := waitForEvent(events)()
	assert.Equal(t, session.EventAlertFinished, session.Event(msg.(eventMsg)).Type)

	close(events)
	assert.IsType(t, eventsClosedMsg{}, waitForEvent(events)())
}

func TestNotifier_SendsBanner(t *testing.T) {
	var sent []tea.Msg
	notifier := NewNotifier(func(msg tea.Msg) { sent = append(sent, msg) })
	assert.Equal(t, alert.PermissionGranted, notifier.Permission())
	require.NoError(t, notifier.Show(alert.Title, "Short break is over!"))
	require.Len(t, sent, 1)

	m := New(&recordingController{}, make(chan session.Event), idleWork())
	updated, _ := m.Update(sent[0])
	assert.Contains(t, updated.View(), "Short break is over!")

	assert.ErrorIs(t, NewNotifier(nil).Show(alert.Title, "x"), alert.ErrPermissionDenied)
}
