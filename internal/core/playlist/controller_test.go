package playlist_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomobeat/internal/core/playlist"
	"pomobeat/internal/core/playlist/playlisttest"
)

var refs = []string{"dreaming.mp3", "lost.mp3", "magenta.mp3", "mississippi.mp3"}

func newController(backend *playlisttest.Backend, ended func(uint64)) *playlist.Controller {
	return playlist.NewController(backend, refs, playlist.Options{
		ScrubThreshold: 15 * time.Second,
		OnEnded:        ended,
	})
}

func TestController_LoadsLazily(t *testing.T) {
	backend := playlisttest.New()
	controller := newController(backend, nil)

	assert.Empty(t, backend.Handles())
	assert.False(t, controller.State().Loaded)

	require.NoError(t, controller.LoadCurrent())
	require.NoError(t, controller.LoadCurrent())
	assert.Len(t, backend.Handles(), 1)
	assert.True(t, controller.Tracks()[0].Loaded)
}

func TestController_PlayRequiresLoadedTrack(t *testing.T) {
	controller := newController(playlisttest.New(), nil)

	controller.Play()
	assert.False(t, controller.State().Playing)

	require.NoError(t, controller.LoadCurrent())
	controller.Play()
	assert.True(t, controller.State().Playing)

	controller.Pause()
	assert.False(t, controller.State().Playing)
}

func TestController_NextWrapsAndResumes(t *testing.T) {
	backend := playlisttest.New()
	controller := newController(backend, nil)
	require.NoError(t, controller.LoadCurrent())
	controller.Play()

	for _, want := range []int{1, 2, 3, 0} {
		require.NoError(t, controller.Next())
		assert.Equal(t, want, controller.State().Index)
		assert.True(t, controller.State().Playing)
	}

	active := backend.Active()
	require.Len(t, active, 1, "only one track may stay loaded")
	assert.Equal(t, refs[0], active[0].Ref)
	assert.True(t, active[0].Playing())
}

func TestController_NextWhilePausedStaysPaused(t *testing.T) {
	backend := playlisttest.New()
	controller := newController(backend, nil)
	require.NoError(t, controller.LoadCurrent())

	require.NoError(t, controller.Next())
	assert.Equal(t, 1, controller.State().Index)
	assert.False(t, controller.State().Playing)
	assert.False(t, backend.Last().Playing())
}

func TestController_PreviousScrubOrSkip(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   float64
		wantIndex int
		newLoads  int
	}{
		{name: "restarts after threshold", elapsed: 20, wantIndex: 2, newLoads: 0},
		{name: "moves back before threshold", elapsed: 5, wantIndex: 1, newLoads: 1},
		{name: "exactly at threshold moves back", elapsed: 15, wantIndex: 1, newLoads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := playlisttest.New()
			controller := newController(backend, nil)
			require.NoError(t, controller.Next())
			require.NoError(t, controller.Next())
			handlesBefore := len(backend.Handles())
			backend.Last().SetPosition(tt.elapsed)

			require.NoError(t, controller.Previous())

			assert.Equal(t, tt.wantIndex, controller.State().Index)
			assert.Equal(t, tt.newLoads, len(backend.Handles())-handlesBefore)
			if tt.newLoads == 0 {
				assert.Zero(t, backend.Last().Position())
			}
		})
	}
}

func TestController_PreviousWrapsFromFirstTrack(t *testing.T) {
	controller := newController(playlisttest.New(), nil)
	require.NoError(t, controller.LoadCurrent())

	require.NoError(t, controller.Previous())
	assert.Equal(t, 3, controller.State().Index)
}

func TestController_TrackEndedMatchesNext(t *testing.T) {
	for _, playing := range []bool{true, false} {
		viaNext := newController(playlisttest.New(), nil)
		require.NoError(t, viaNext.LoadCurrent())
		if playing {
			viaNext.Play()
		}
		require.NoError(t, viaNext.Next())

		var generation uint64
		backend := playlisttest.New()
		viaEnd := newController(backend, func(g uint64) { generation = g })
		require.NoError(t, viaEnd.LoadCurrent())
		if playing {
			viaEnd.Play()
		}
		backend.Last().End()
		advanced, err := viaEnd.TrackEnded(generation, true)
		require.NoError(t, err)
		assert.True(t, advanced)

		assert.Equal(t, viaNext.State(), viaEnd.State(), "playing=%v", playing)
	}
}

func TestController_TrackEndedIgnoredWhenPausedOrStale(t *testing.T) {
	var generations []uint64
	backend := playlisttest.New()
	controller := newController(backend, func(g uint64) { generations = append(generations, g) })
	require.NoError(t, controller.LoadCurrent())
	first := backend.Last()

	first.End()
	advanced, err := controller.TrackEnded(generations[0], false)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, 0, controller.State().Index)

	require.NoError(t, controller.Next())
	first.End()
	advanced, err = controller.TrackEnded(generations[1], true)
	require.NoError(t, err)
	assert.False(t, advanced, "ended event of an unloaded track is stale")
	assert.Equal(t, 1, controller.State().Index)
}

func TestController_LoadFailureReleasesPrevious(t *testing.T) {
	backend := playlisttest.New()
	controller := newController(backend, nil)
	require.NoError(t, controller.LoadCurrent())
	controller.Play()
	backend.FailOn(refs[1], errors.New("decode error"))

	err := controller.Next()
	require.ErrorIs(t, err, playlist.ErrPlaybackUnavailable)

	assert.Empty(t, backend.Active())
	state := controller.State()
	assert.False(t, state.Loaded)
	assert.False(t, state.Playing)
	assert.Equal(t, 1, state.Index)

	controller.Play()
	assert.False(t, controller.State().Playing)

	require.NoError(t, controller.Next())
	assert.True(t, controller.State().Loaded)
}

func TestController_SwitchReplacesTracks(t *testing.T) {
	backend := playlisttest.New()
	controller := newController(backend, nil)
	require.NoError(t, controller.Next())
	controller.Play()

	controller.Switch([]string{"dreamy-love.mp3", "sloopy.mp3"})

	assert.Empty(t, backend.Active())
	assert.Equal(t, playlist.State{Index: 0, Count: 2}, controller.State())
	require.NoError(t, controller.LoadCurrent())
	assert.Equal(t, "dreamy-love.mp3", backend.Last().Ref)
}

func TestController_EmptyPlaylistIsInert(t *testing.T) {
	backend := playlisttest.New()
	controller := playlist.NewController(backend, nil, playlist.Options{})

	require.NoError(t, controller.LoadCurrent())
	require.NoError(t, controller.Next())
	require.NoError(t, controller.Previous())
	controller.Play()
	assert.Empty(t, backend.Handles())
	assert.False(t, controller.State().Playing)
}

func TestOneShot_ReleasesOnEnd(t *testing.T) {
	backend := playlisttest.New()
	cue := playlist.NewOneShot(backend, "ting.mp3")

	require.NoError(t, cue.Play())
	handle := backend.Last()
	require.NotNil(t, handle)
	assert.True(t, handle.Playing())

	handle.End()
	assert.True(t, handle.Unloaded())
}

func TestOneShot_LoadFailure(t *testing.T) {
	backend := playlisttest.New()
	backend.FailOn("ting.mp3", errors.New("missing"))

	err := playlist.NewOneShot(backend, "ting.mp3").Play()
	assert.ErrorIs(t, err, playlist.ErrPlaybackUnavailable)
	assert.NoError(t, playlist.NewOneShot(backend, "").Play())
}
