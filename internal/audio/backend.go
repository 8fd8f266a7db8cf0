// Package audio plays playlist tracks and cues through the system speaker.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog"

	"pomobeat/internal/core/playlist"
)

// ErrUnsupportedFormat is returned for files that are neither mp3 nor wav.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	defaultSampleRate = beep.SampleRate(44100)
	resampleQuality   = 4
)

// Options configures a Backend.
type Options struct {
	// Dir resolves relative source refs.
	Dir string
	// Volume is a linear gain in [0, 1].
	Volume     float64
	SampleRate beep.SampleRate
	Logger     zerolog.Logger
}

// Backend implements playlist.Backend on the beep speaker. The speaker is
// initialized on first load.
type Backend struct {
	mu      sync.Mutex
	options Options
	ready   bool
	logger  zerolog.Logger
}

// NewBackend creates a speaker backend.
func NewBackend(options Options) *Backend {
	if options.SampleRate <= 0 {
		options.SampleRate = defaultSampleRate
	}
	if options.Volume < 0 {
		options.Volume = 0
	}
	if options.Volume > 1 {
		options.Volume = 1
	}
	return &Backend{
		options: options,
		logger:  options.Logger.With().Str("component", "audio").Logger(),
	}
}

// Resolve returns the file path of sourceRef.
func (backend *Backend) Resolve(sourceRef string) string {
	if filepath.IsAbs(sourceRef) || backend.options.Dir == "" {
		return sourceRef
	}
	return filepath.Join(backend.options.Dir, sourceRef)
}

// Load implements playlist.Backend. The track starts paused.
func (backend *Backend) Load(sourceRef string, onEnded func()) (playlist.Handle, error) {
	stream, format, err := backend.decode(sourceRef)
	if err != nil {
		return nil, err
	}
	if err := backend.initSpeaker(); err != nil {
		_ = stream.Close()
		return nil, err
	}

	var source beep.Streamer = stream
	if format.SampleRate != backend.options.SampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, backend.options.SampleRate, stream)
	}
	ended := beep.Callback(func() {
		if onEnded != nil {
			// The speaker lock is held here.
			go onEnded()
		}
	})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(source, ended), Paused: true}
	speaker.Play(backend.gain(ctrl))

	backend.logger.Debug().Str("ref", sourceRef).Dur("length", format.SampleRate.D(stream.Len())).Msg("track loaded")
	return &track{stream: stream, format: format, ctrl: ctrl}, nil
}

func (backend *Backend) decode(sourceRef string) (beep.StreamSeekCloser, beep.Format, error) {
	path := backend.Resolve(sourceRef)
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	case ".wav":
		stream, format, err = wav.Decode(file)
	default:
		_ = file.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return stream, format, nil
}

func (backend *Backend) initSpeaker() error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.ready {
		return nil
	}
	rate := backend.options.SampleRate
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("%w: init speaker: %w", playlist.ErrPlaybackUnavailable, err)
	}
	backend.ready = true
	return nil
}

func (backend *Backend) gain(streamer beep.Streamer) beep.Streamer {
	volume := backend.options.Volume
	if volume >= 1 {
		return streamer
	}
	return &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 0.001)),
		Silent:   volume == 0,
	}
}

// Close stops every stream and releases the speaker.
func (backend *Backend) Close() {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if !backend.ready {
		return
	}
	speaker.Clear()
	speaker.Close()
	backend.ready = false
}

type track struct {
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	unloaded bool
}

func (track *track) Play() error {
	return track.setPaused(false)
}

func (track *track) Pause() error {
	return track.setPaused(true)
}

func (track *track) setPaused(paused bool) error {
	speaker.Lock()
	defer speaker.Unlock()
	if track.unloaded {
		return fmt.Errorf("track unloaded")
	}
	track.ctrl.Paused = paused
	return nil
}

func (track *track) Seek(seconds float64) (float64, error) {
	speaker.Lock()
	defer speaker.Unlock()
	if track.unloaded {
		return 0, fmt.Errorf("track unloaded")
	}
	position := track.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	position = min(max(position, 0), track.stream.Len())
	if err := track.stream.Seek(position); err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}
	return track.format.SampleRate.D(position).Seconds(), nil
}

func (track *track) Position() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	if track.unloaded {
		return 0
	}
	return track.format.SampleRate.D(track.stream.Position()).Seconds()
}

func (track *track) Unload() error {
	speaker.Lock()
	if track.unloaded {
		speaker.Unlock()
		return nil
	}
	track.unloaded = true
	// A nil streamer drains the ctrl and the mixer drops it.
	track.ctrl.Streamer = nil
	speaker.Unlock()
	return track.stream.Close()
}
