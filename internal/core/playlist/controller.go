// Package playlist drives a cyclic list of ambient tracks on a playback
// backend.
package playlist

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Track is a playlist entry. Loaded is true only for the track currently
// held by the backend.
type Track struct {
	ID        int
	SourceRef string
	Loaded    bool
}

// State is a read-only view of the controller.
type State struct {
	Index   int
	Count   int
	Playing bool
	Loaded  bool
}

// Options configures a Controller.
type Options struct {
	// ScrubThreshold is the elapsed time after which Previous restarts the
	// current track instead of moving back.
	ScrubThreshold time.Duration
	// OnEnded receives the load generation of a track that ended naturally.
	// It is called from backend goroutines and must not touch the
	// controller; the owner passes the generation back to TrackEnded.
	OnEnded func(generation uint64)
	Logger  zerolog.Logger
}

// Controller owns one playlist. It is not safe for concurrent use; a single
// owner goroutine calls every method.
type Controller struct {
	backend    Backend
	options    Options
	tracks     []Track
	current    int
	loaded     int
	playing    bool
	handle     Handle
	generation uint64
	logger     zerolog.Logger
}

// NewController creates a controller over refs. Nothing is loaded until
// first use.
func NewController(backend Backend, refs []string, options Options) *Controller {
	if options.ScrubThreshold <= 0 {
		options.ScrubThreshold = 15 * time.Second
	}
	return &Controller{
		backend: backend,
		options: options,
		tracks:  buildTracks(refs),
		loaded:  -1,
		logger:  options.Logger.With().Str("component", "playlist").Logger(),
	}
}

// Tracks returns a copy of the track list.
func (controller *Controller) Tracks() []Track {
	return append([]Track(nil), controller.tracks...)
}

// State returns the current index and play state.
func (controller *Controller) State() State {
	return State{
		Index:   controller.current,
		Count:   len(controller.tracks),
		Playing: controller.playing,
		Loaded:  controller.handle != nil,
	}
}

// SetScrubThreshold changes the restart-in-place cutoff of Previous.
func (controller *Controller) SetScrubThreshold(threshold time.Duration) {
	if threshold > 0 {
		controller.options.ScrubThreshold = threshold
	}
}

// LoadCurrent loads the track at the current index, releasing any other
// loaded track first. It is a no-op when that track is already loaded.
func (controller *Controller) LoadCurrent() error {
	if len(controller.tracks) == 0 {
		return nil
	}
	if controller.handle != nil && controller.loaded == controller.current {
		return nil
	}
	controller.release()

	controller.generation++
	generation := controller.generation
	track := controller.tracks[controller.current]
	onEnded := controller.options.OnEnded
	handle, err := controller.backend.Load(track.SourceRef, func() {
		if onEnded != nil {
			onEnded(generation)
		}
	})
	if err != nil {
		controller.logger.Warn().Err(err).Str("track", track.SourceRef).Msg("track load failed")
		return fmt.Errorf("%w: load %s: %w", ErrPlaybackUnavailable, track.SourceRef, err)
	}

	controller.handle = handle
	controller.loaded = controller.current
	controller.tracks[controller.current].Loaded = true
	controller.logger.Debug().Int("track", track.ID).Str("ref", track.SourceRef).Msg("track loaded")
	return nil
}

// Play resumes the loaded track.
func (controller *Controller) Play() {
	if controller.handle == nil {
		return
	}
	if err := controller.handle.Play(); err != nil {
		controller.logger.Warn().Err(err).Msg("play failed")
		controller.playing = false
		return
	}
	controller.playing = true
}

// Pause pauses the loaded track.
func (controller *Controller) Pause() {
	if controller.handle == nil {
		return
	}
	if err := controller.handle.Pause(); err != nil {
		controller.logger.Warn().Err(err).Msg("pause failed")
	}
	controller.playing = false
}

// Next moves to the following track, wrapping around, and keeps playing if
// playback was active.
func (controller *Controller) Next() error {
	if len(controller.tracks) == 0 {
		return nil
	}
	return controller.moveTo((controller.current + 1) % len(controller.tracks))
}

// Previous restarts the current track once it has played longer than the
// scrub threshold; otherwise it moves to the prior track.
func (controller *Controller) Previous() error {
	count := len(controller.tracks)
	if count == 0 {
		return nil
	}

	if controller.handle != nil && controller.loaded == controller.current {
		if controller.handle.Position() > controller.options.ScrubThreshold.Seconds() {
			if _, err := controller.handle.Seek(0); err != nil {
				return fmt.Errorf("restart track: %w", err)
			}
			return nil
		}
	}
	return controller.moveTo((controller.current - 1 + count) % count)
}

// TrackEnded handles a natural end reported for generation. It advances
// only for the current handle and only while the session runs.
func (controller *Controller) TrackEnded(generation uint64, sessionRunning bool) (bool, error) {
	if generation != controller.generation || controller.handle == nil {
		return false, nil
	}
	if !sessionRunning {
		return false, nil
	}
	return true, controller.Next()
}

// Switch replaces the track list, releasing the loaded track.
func (controller *Controller) Switch(refs []string) {
	controller.release()
	controller.generation++
	controller.tracks = buildTracks(refs)
	controller.current = 0
	controller.playing = false
}

// Close releases the loaded track.
func (controller *Controller) Close() {
	controller.release()
	controller.generation++
	controller.playing = false
}

func (controller *Controller) moveTo(index int) error {
	wasPlaying := controller.playing
	controller.current = index
	if err := controller.LoadCurrent(); err != nil {
		controller.playing = false
		return err
	}
	if wasPlaying {
		controller.Play()
	}
	return nil
}

func (controller *Controller) release() {
	if controller.handle == nil {
		return
	}
	if err := controller.handle.Unload(); err != nil {
		controller.logger.Warn().Err(err).Msg("track unload failed")
	}
	if controller.loaded >= 0 && controller.loaded < len(controller.tracks) {
		controller.tracks[controller.loaded].Loaded = false
	}
	controller.handle = nil
	controller.loaded = -1
}

func buildTracks(refs []string) []Track {
	tracks := make([]Track, 0, len(refs))
	for index, ref := range refs {
		tracks = append(tracks, Track{ID: index + 1, SourceRef: ref})
	}
	return tracks
}
