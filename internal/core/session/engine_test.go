package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomobeat/internal/core/model"
	"pomobeat/internal/core/playlist/playlisttest"
	"pomobeat/internal/core/ticksource"
)

// scriptedSource lets a test push tick signals by hand.
type scriptedSource struct {
	mu      sync.Mutex
	calls   []string
	epoch   uint64
	signals chan ticksource.Signal
	once    sync.Once
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{signals: make(chan ticksource.Signal, 2048)}
}

func (source *scriptedSource) record(call string, epoch uint64) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.calls = append(source.calls, call)
	if epoch != 0 {
		source.epoch = epoch
	}
}

func (source *scriptedSource) Start(epoch uint64, _ int) { source.record("start", epoch) }
func (source *scriptedSource) Pause() { source.record("pause", 0) }
func (source *scriptedSource) Reset(epoch uint64, _ int) { source.record("reset", epoch) }

func (source *scriptedSource) Signals() <-chan ticksource.Signal {
	return source.signals
}

func (source *scriptedSource) Close() error {
	source.once.Do(func() { close(source.signals) })
	return nil
}

func (source *scriptedSource) Calls() []string {
	source.mu.Lock()
	defer source.mu.Unlock()
	return append([]string(nil), source.calls...)
}

func (source *scriptedSource) Epoch() uint64 {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.epoch
}

// tick pushes a signal for the current sequence.
func (source *scriptedSource) tick(remaining int) {
	source.signals <- ticksource.Signal{Remaining: remaining, Epoch: source.Epoch()}
}

// countdown pushes every remaining value from seconds-1 down to zero.
func (source *scriptedSource) countdown(seconds int) {
	for remaining := seconds - 1; remaining >= 0; remaining-- {
		source.tick(remaining)
	}
	source.signals <- ticksource.Signal{Expired: true, Epoch: source.Epoch()}
}

type counter struct {
	mu    sync.Mutex
	count int
}

func (counter *counter) Play() error {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	counter.count++
	return nil
}

func (counter *counter) Count() int {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.count
}

type harness struct {
	engine  *Engine
	clock   *clockwork.FakeClock
	backend *playlisttest.Backend
	chime   *counter
	cue     *counter
	events  <-chan Event

	mu      sync.Mutex
	sources []*scriptedSource
}

func newHarness(t *testing.T, config model.EngineConfig) *harness {
	t.Helper()
	h := &harness{
		clock:   clockwork.NewFakeClock(),
		backend: playlisttest.New(),
		chime:   &counter{},
		cue:     &counter{},
	}
	h.engine = New(config, Options{
		Clock: h.clock,
		NewTickSource: func() ticksource.Source {
			source := newScriptedSource()
			h.mu.Lock()
			h.sources = append(h.sources, source)
			h.mu.Unlock()
			return source
		},
		Backend:  h.backend,
		Chime:    h.chime,
		StartCue: h.cue,
	})
	h.events = h.engine.Subscribe(4096)
	h.engine.Start()
	t.Cleanup(h.engine.Close)
	return h
}

func (h *harness) source() *scriptedSource {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sources[len(h.sources)-1]
}

func (h *harness) sourceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sources)
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snapshot, err := h.engine.Snapshot(ctx)
	require.NoError(t, err)
	return snapshot
}

func (h *harness) waitFor(t *testing.T, eventType EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-h.events:
			if event.Type == eventType {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func (h *harness) drain() []Event {
	var events []Event
	for {
		select {
		case event := <-h.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

func testConfig() model.EngineConfig {
	config := model.DefaultEngineConfig()
	config.Playlists = model.Playlists{
		Work:       []string{"dreaming.mp3", "lost.mp3", "magenta.mp3"},
		ShortBreak: []string{"mississippi.mp3"},
		LongBreak:  []string{"lowkey.mp3", "stars.mp3"},
	}
	return config
}

func TestEngine_StartsIdleInWork(t *testing.T) {
	h := newHarness(t, testConfig())

	snapshot := h.snapshot(t)
	assert.Equal(t, model.ModeWork, snapshot.Mode)
	assert.Equal(t, PhaseIdle, snapshot.Phase)
	assert.Equal(t, 1500, snapshot.Remaining)
	assert.Equal(t, "idle_work", snapshot.State())
	assert.Equal(t, 3, snapshot.TrackCount)
	assert.Empty(t, h.backend.Handles(), "tracks load lazily")
}

func TestEngine_ChangeModeThenReset(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ChangeMode(model.ModeShortBreak)
	snapshot := h.snapshot(t)
	assert.Equal(t, "idle_short_break", snapshot.State())
	assert.Equal(t, 300, snapshot.Remaining)
	assert.Equal(t, 1, snapshot.TrackCount)

	h.engine.ToggleRun()
	h.waitFor(t, EventStateChange)
	h.source().tick(299)
	h.source().tick(298)
	h.waitFor(t, EventTick)
	tick := h.waitFor(t, EventTick)
	assert.Equal(t, 298, tick.Snapshot.Remaining)

	h.engine.Reset()
	snapshot = h.snapshot(t)
	assert.Equal(t, "idle_short_break", snapshot.State())
	assert.Equal(t, 300, snapshot.Remaining)
	assert.Equal(t, []string{"reset", "start", "reset"}, h.source().Calls())
}

func TestEngine_ToggleRunPausesAndResumes(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	assert.Equal(t, PhaseRunning, h.snapshot(t).Phase)
	h.engine.ToggleRun()
	assert.Equal(t, PhaseIdle, h.snapshot(t).Phase)
	h.engine.ToggleRun()
	snapshot := h.snapshot(t)
	assert.Equal(t, PhaseRunning, snapshot.Phase)
	assert.Equal(t, 1500, snapshot.Remaining)
	assert.Equal(t, []string{"start", "pause", "start"}, h.source().Calls())
}

func TestEngine_ExhaustsOnceAndRunsAlert(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.source().countdown(1500)

	exhausted := h.waitFor(t, EventExhausted)
	assert.Equal(t, PhaseExhausted, exhausted.Snapshot.Phase)
	assert.Equal(t, 0, exhausted.Snapshot.Remaining)
	assert.True(t, exhausted.Snapshot.AlertActive)
	assert.Equal(t, "Pomodoro is up! Whoo!", exhausted.Message)
	assert.Equal(t, 1, h.chime.Count())
	assert.False(t, h.backend.Last().Playing(), "ambient audio stops on exhaustion")

	// Exhausted ignores toggles until the alert settles.
	h.engine.ToggleRun()
	assert.Equal(t, "exhausted", h.snapshot(t).State())

	for i := 0; i < 2; i++ {
		require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
		h.clock.Advance(2 * time.Second)
	}
	finished := h.waitFor(t, EventAlertFinished)
	assert.Equal(t, "idle_work", finished.Snapshot.State())
	assert.Equal(t, 3, h.chime.Count())

	for _, event := range h.drain() {
		assert.NotEqual(t, EventExhausted, event.Type, "exhausted is emitted once")
	}

	// Idle at zero needs a reset before it can run again.
	h.engine.ToggleRun()
	snapshot := h.snapshot(t)
	assert.Equal(t, PhaseIdle, snapshot.Phase)
	assert.Equal(t, 0, snapshot.Remaining)

	h.engine.Reset()
	h.engine.ToggleRun()
	assert.Equal(t, "running_work", h.snapshot(t).State())
}

func TestEngine_ModeChangeCancelsAlert(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	config := testConfig()
	config.Durations.Work = 2 * time.Second
	h := newHarness(t, config)

	h.engine.ToggleRun()
	h.source().countdown(2)
	h.waitFor(t, EventExhausted)
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.engine.ChangeMode(model.ModeLongBreak)
	snapshot := h.snapshot(t)
	assert.Equal(t, "idle_long_break", snapshot.State())
	assert.Equal(t, 900, snapshot.Remaining)
	assert.False(t, snapshot.AlertActive)

	require.NoError(t, h.clock.BlockUntilContext(ctx, 0))
	h.clock.Advance(10 * time.Second)
	h.snapshot(t)
	assert.Equal(t, 1, h.chime.Count())
	for _, event := range h.drain() {
		assert.NotEqual(t, EventAlertFinished, event.Type)
	}
}

func TestEngine_StartCueOnlyForBreaks(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.snapshot(t)
	assert.Zero(t, h.cue.Count())

	h.engine.ChangeMode(model.ModeShortBreak)
	h.engine.ToggleRun()
	h.snapshot(t)
	assert.Equal(t, 1, h.cue.Count())

	h.engine.ChangeMode(model.ModeLongBreak)
	h.engine.ToggleRun()
	h.snapshot(t)
	assert.Equal(t, 2, h.cue.Count())
}

func TestEngine_AudioFollowsRunningState(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	snapshot := h.snapshot(t)
	require.Len(t, h.backend.Handles(), 1)
	handle := h.backend.Last()
	assert.Equal(t, "dreaming.mp3", handle.Ref)
	assert.True(t, handle.Playing())
	assert.True(t, snapshot.Playing)

	h.engine.SetAudioEnabled(false)
	snapshot = h.snapshot(t)
	assert.False(t, handle.Playing())
	assert.False(t, snapshot.AudioEnabled)

	h.engine.SetAudioEnabled(true)
	h.snapshot(t)
	assert.True(t, handle.Playing())

	h.engine.ToggleRun()
	h.snapshot(t)
	assert.False(t, handle.Playing())
	assert.Len(t, h.backend.Handles(), 1, "pausing keeps the track loaded")
}

func TestEngine_ModeChangeSwitchesPlaylist(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.snapshot(t)
	work := h.backend.Last()

	h.engine.ChangeMode(model.ModeLongBreak)
	h.engine.ToggleRun()
	h.snapshot(t)
	assert.True(t, work.Unloaded())
	assert.Equal(t, "lowkey.mp3", h.backend.Last().Ref)
	assert.True(t, h.backend.Last().Playing())

	// Re-selecting the same mode keeps the loaded track.
	h.engine.ChangeMode(model.ModeLongBreak)
	h.snapshot(t)
	assert.False(t, h.backend.Last().Unloaded())
}

func TestEngine_TrackEndAdvancesOnlyWhileRunning(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.snapshot(t)
	first := h.backend.Last()

	first.End()
	change := h.waitFor(t, EventTrackChange)
	assert.Equal(t, 1, change.Snapshot.Track)
	second := h.backend.Last()
	assert.Equal(t, "lost.mp3", second.Ref)
	assert.True(t, second.Playing())
	assert.True(t, first.Unloaded())

	// A late end from the released handle is ignored.
	first.End()
	assert.Equal(t, 1, h.snapshot(t).Track)

	h.engine.ToggleRun()
	h.snapshot(t)
	second.End()
	snapshot := h.snapshot(t)
	assert.Equal(t, 1, snapshot.Track)
	assert.False(t, snapshot.Playing)
}

func TestEngine_ManualTrackControls(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.PreviousTrack()
	snapshot := h.snapshot(t)
	assert.Equal(t, 2, snapshot.Track)
	assert.False(t, snapshot.Playing)

	h.engine.NextTrack()
	h.engine.NextTrack()
	assert.Equal(t, 1, h.snapshot(t).Track)

	h.engine.ToggleRun()
	h.snapshot(t)
	h.backend.Last().SetPosition(30)
	h.engine.PreviousTrack()
	snapshot = h.snapshot(t)
	assert.Equal(t, 1, snapshot.Track, "late previous restarts in place")
	assert.Zero(t, h.backend.Last().Position())
}

func TestEngine_ClockFailureForcesIdle(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.source().tick(1499)
	h.waitFor(t, EventTick)
	require.NoError(t, h.source().Close())

	failure := h.waitFor(t, EventClockFailure)
	assert.Equal(t, PhaseIdle, failure.Snapshot.Phase)
	assert.ErrorIs(t, failure.Snapshot.ClockErr, ErrClockUnavailable)
	assert.Equal(t, 1499, failure.Snapshot.Remaining)

	h.engine.ToggleRun()
	h.waitFor(t, EventClockFailure)
	assert.Equal(t, PhaseIdle, h.snapshot(t).Phase)

	h.engine.Reset()
	snapshot := h.snapshot(t)
	assert.NoError(t, snapshot.ClockErr)
	assert.Equal(t, 1500, snapshot.Remaining)
	assert.Equal(t, 2, h.sourceCount())

	h.engine.ToggleRun()
	assert.Equal(t, PhaseRunning, h.snapshot(t).Phase)
}

func TestEngine_UpdateConfig(t *testing.T) {
	h := newHarness(t, testConfig())

	updated := testConfig()
	updated.Durations.Work = 50 * time.Minute
	h.engine.UpdateConfig(updated)
	assert.Equal(t, 3000, h.snapshot(t).Remaining)

	h.engine.ToggleRun()
	updated.Durations.Work = 10 * time.Minute
	h.engine.UpdateConfig(updated)
	snapshot := h.snapshot(t)
	assert.Equal(t, PhaseRunning, snapshot.Phase)
	assert.Equal(t, 600, snapshot.Remaining)

	updated.Playlists.Work = []string{"only.mp3"}
	h.engine.UpdateConfig(updated)
	snapshot = h.snapshot(t)
	assert.Equal(t, 1, snapshot.TrackCount)
	assert.Equal(t, "only.mp3", h.backend.Last().Ref)
}

func TestEngine_CloseReleasesResources(t *testing.T) {
	h := newHarness(t, testConfig())
	h.engine.ToggleRun()
	h.snapshot(t)

	h.engine.Close()
	assert.True(t, h.backend.Last().Unloaded())
	_, ok := <-h.source().Signals()
	assert.False(t, ok)

	_, err := h.engine.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestEngine_DropsSignalsFromStoppedCountdown(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.ToggleRun()
	h.snapshot(t)
	stale := h.source().Epoch()

	h.engine.Reset()
	h.engine.ToggleRun()
	h.snapshot(t)

	h.source().signals <- ticksource.Signal{Remaining: 2, Epoch: stale}
	h.source().signals <- ticksource.Signal{Expired: true, Epoch: stale}
	snapshot := h.snapshot(t)
	assert.Equal(t, "running_work", snapshot.State())
	assert.Equal(t, 1500, snapshot.Remaining)
	assert.Zero(t, h.chime.Count())
	for _, event := range h.drain() {
		assert.NotEqual(t, EventExhausted, event.Type)
		assert.NotEqual(t, EventTick, event.Type)
	}
}

func TestEngine_BufferedTicksDoNotLeakIntoNextSession(t *testing.T) {
	config := testConfig()
	config.Durations.Work = 3 * time.Second
	clock := clockwork.NewFakeClock()
	chime := &counter{}
	var source *ticksource.Local
	engine := New(config, Options{
		Clock: clock,
		NewTickSource: func() ticksource.Source {
			source = ticksource.NewLocal(clock, time.Second)
			return source
		},
		Backend: playlisttest.New(),
		Chime:   chime,
	})
	events := engine.Subscribe(256)
	engine.Start()
	t.Cleanup(engine.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine.ToggleRun()
	_, err := engine.Snapshot(ctx)
	require.NoError(t, err)

	// Hold the loop so the whole countdown piles up in the signal buffer.
	gate := make(chan struct{})
	engine.enqueue(func(*Engine) { <-gate })
	for buffered := 1; buffered <= 3; buffered++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
		want := buffered
		if buffered == 3 {
			want = 4
		}
		require.Eventually(t, func() bool { return len(source.Signals()) == want }, time.Second, time.Millisecond)
	}

	engine.Reset()
	engine.ToggleRun()
	close(gate)
	require.Eventually(t, func() bool { return len(source.Signals()) == 0 }, time.Second, time.Millisecond)

	snapshot, err := engine.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "running_work", snapshot.State())
	assert.Equal(t, 3, snapshot.Remaining)
	assert.Zero(t, chime.Count())
	for len(events) > 0 {
		assert.NotEqual(t, EventExhausted, (<-events).Type)
	}
}
