package playlist

import (
	"fmt"
	"sync"
)

// OneShot plays a short cue on a backend and releases it when the sound
// ends. Overlapping plays are independent.
type OneShot struct {
	backend   Backend
	sourceRef string
}

// NewOneShot creates a cue for sourceRef. An empty ref produces a silent cue.
func NewOneShot(backend Backend, sourceRef string) *OneShot {
	return &OneShot{backend: backend, sourceRef: sourceRef}
}

// Play starts the cue without waiting for it to finish.
func (cue *OneShot) Play() error {
	if cue == nil || cue.backend == nil || cue.sourceRef == "" {
		return nil
	}

	playback := &oneShotPlayback{}
	handle, err := cue.backend.Load(cue.sourceRef, playback.release)
	if err != nil {
		return fmt.Errorf("%w: load cue %s: %w", ErrPlaybackUnavailable, cue.sourceRef, err)
	}
	playback.hold(handle)

	if err := handle.Play(); err != nil {
		playback.release()
		return fmt.Errorf("play cue %s: %w", cue.sourceRef, err)
	}
	return nil
}

type oneShotPlayback struct {
	mu     sync.Mutex
	handle Handle
}

func (playback *oneShotPlayback) hold(handle Handle) {
	playback.mu.Lock()
	playback.handle = handle
	playback.mu.Unlock()
}

func (playback *oneShotPlayback) release() {
	playback.mu.Lock()
	handle := playback.handle
	playback.handle = nil
	playback.mu.Unlock()
	if handle != nil {
		_ = handle.Unload()
	}
}
