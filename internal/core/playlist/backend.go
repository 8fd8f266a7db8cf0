package playlist

import "errors"

// ErrPlaybackUnavailable indicates a track could not be loaded. The
// controller then behaves as if no track were loaded.
var ErrPlaybackUnavailable = errors.New("playback unavailable")

// Handle is a loaded, playable track.
type Handle interface {
	Play() error
	Pause() error
	// Seek moves to seconds and returns the resulting position.
	Seek(seconds float64) (float64, error)
	// Position returns the seconds elapsed on the track.
	Position() float64
	Unload() error
}

// Backend loads tracks for playback. onEnded is invoked asynchronously,
// at most once, when the track reaches its natural end.
type Backend interface {
	Load(sourceRef string, onEnded func()) (Handle, error)
}
