// Package playlisttest provides an in-memory playback backend for tests.
package playlisttest

import (
	"sync"

	"pomobeat/internal/core/playlist"
)

// Backend records every load and the state of each handle.
type Backend struct {
	mu      sync.Mutex
	fail    map[string]error
	handles []*Handle
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{fail: make(map[string]error)}
}

// FailOn makes loads of ref return err. A nil err clears the failure.
func (backend *Backend) FailOn(ref string, err error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if err == nil {
		delete(backend.fail, ref)
		return
	}
	backend.fail[ref] = err
}

// Load implements playlist.Backend.
func (backend *Backend) Load(ref string, onEnded func()) (playlist.Handle, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if err := backend.fail[ref]; err != nil {
		return nil, err
	}
	handle := &Handle{backend: backend, Ref: ref, onEnded: onEnded}
	backend.handles = append(backend.handles, handle)
	return handle, nil
}

// Handles returns every handle ever loaded, oldest first.
func (backend *Backend) Handles() []*Handle {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return append([]*Handle(nil), backend.handles...)
}

// Active returns handles that have not been unloaded.
func (backend *Backend) Active() []*Handle {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	var active []*Handle
	for _, handle := range backend.handles {
		if !handle.unloaded {
			active = append(active, handle)
		}
	}
	return active
}

// Last returns the most recently loaded handle or nil.
func (backend *Backend) Last() *Handle {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.handles) == 0 {
		return nil
	}
	return backend.handles[len(backend.handles)-1]
}

// Loads counts loads of ref.
func (backend *Backend) Loads(ref string) int {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	count := 0
	for _, handle := range backend.handles {
		if handle.Ref == ref {
			count++
		}
	}
	return count
}

// Handle is a fake loaded track.
type Handle struct {
	backend  *Backend
	Ref      string
	onEnded  func()
	playing  bool
	plays    int
	position float64
	unloaded bool
}

// Play implements playlist.Handle.
func (handle *Handle) Play() error {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	handle.playing = true
	handle.plays++
	return nil
}

// Pause implements playlist.Handle.
func (handle *Handle) Pause() error {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	handle.playing = false
	return nil
}

// Seek implements playlist.Handle.
func (handle *Handle) Seek(seconds float64) (float64, error) {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	handle.position = seconds
	return seconds, nil
}

// Position implements playlist.Handle.
func (handle *Handle) Position() float64 {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	return handle.position
}

// Unload implements playlist.Handle.
func (handle *Handle) Unload() error {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	handle.unloaded = true
	handle.playing = false
	return nil
}

// SetPosition simulates playback progress.
func (handle *Handle) SetPosition(seconds float64) {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	handle.position = seconds
}

// Playing reports whether the handle is playing.
func (handle *Handle) Playing() bool {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	return handle.playing
}

// Plays counts Play calls.
func (handle *Handle) Plays() int {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	return handle.plays
}

// Unloaded reports whether the handle was released.
func (handle *Handle) Unloaded() bool {
	handle.backend.mu.Lock()
	defer handle.backend.mu.Unlock()
	return handle.unloaded
}

// End simulates the natural end of the track.
func (handle *Handle) End() {
	handle.backend.mu.Lock()
	handle.playing = false
	onEnded := handle.onEnded
	handle.backend.mu.Unlock()
	if onEnded != nil {
		onEnded()
	}
}
