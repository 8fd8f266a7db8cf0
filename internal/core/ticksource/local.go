package ticksource

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Local runs the tick loop in the caller's process space and is driven by
// direct method calls.
type Local struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	interval  time.Duration
	remaining int
	epoch     uint64
	active    bool
	stop      chan struct{}
	done      chan struct{}
	signals   chan Signal
	quit      chan struct{}
	closed    bool
}

// NewLocal creates a Local source. A nil clock uses the real clock.
func NewLocal(clock clockwork.Clock, interval time.Duration) *Local {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Local{
		clock:    clock,
		interval: interval,
		signals:  make(chan Signal, signalBuffer),
		quit:     make(chan struct{}),
	}
}

// Start implements Source.
func (source *Local) Start(epoch uint64, seconds int) {
	source.mu.Lock()
	if source.closed || source.active || seconds <= 0 {
		source.mu.Unlock()
		return
	}
	if source.stop != nil {
		// An expired sequence may still be flushing its last signals.
		source.mu.Unlock()
		source.halt()
		source.mu.Lock()
		if source.closed || source.active {
			source.mu.Unlock()
			return
		}
	}
	defer source.mu.Unlock()
	source.remaining = seconds
	source.epoch = epoch
	source.active = true

	// The ticker is created before returning so callers can rely on it
	// being armed once Start returns.
	ticker := source.clock.NewTicker(source.interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	source.stop = stop
	source.done = done
	go source.run(ticker, stop, done)
}

// Pause implements Source.
func (source *Local) Pause() {
	source.halt()
}

// Reset implements Source.
func (source *Local) Reset(epoch uint64, seconds int) {
	source.halt()

	source.mu.Lock()
	if source.closed {
		source.mu.Unlock()
		return
	}
	source.remaining = seconds
	source.epoch = epoch
	// The report is informational; drop it rather than block the owner.
	select {
	case source.signals <- Signal{Remaining: seconds, Epoch: epoch}:
	default:
	}
	source.mu.Unlock()
}

// Signals implements Source.
func (source *Local) Signals() <-chan Signal {
	return source.signals
}

// Close implements Source.
func (source *Local) Close() error {
	source.halt()

	source.mu.Lock()
	defer source.mu.Unlock()
	if source.closed {
		return nil
	}
	source.closed = true
	close(source.quit)
	close(source.signals)
	return nil
}

// halt ends the active sequence and waits for its goroutine to exit so
// that nothing from the old sequence is sent afterwards.
func (source *Local) halt() {
	source.mu.Lock()
	stop, done := source.stop, source.done
	source.stop = nil
	source.done = nil
	source.active = false
	source.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (source *Local) run(ticker clockwork.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if !source.tick(stop) {
				return
			}
		}
	}
}

func (source *Local) tick(stop chan struct{}) bool {
	source.mu.Lock()
	if source.stop != stop {
		source.mu.Unlock()
		return false
	}
	source.remaining--
	remaining, epoch := source.remaining, source.epoch
	expired := remaining <= 0
	if expired {
		remaining = 0
		source.remaining = 0
		source.active = false
	}
	source.mu.Unlock()

	source.send(Signal{Remaining: remaining, Epoch: epoch}, stop)
	if expired {
		source.send(Signal{Expired: true, Epoch: epoch}, stop)
		return false
	}
	return true
}

func (source *Local) send(signal Signal, stop chan struct{}) {
	select {
	case source.signals <- signal:
	case <-stop:
	case <-source.quit:
	}
}
