package ticksource

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Worker owns its countdown state and is reachable only through Command
// and Signal messages.
type Worker struct {
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
}

// NewWorker creates a worker. A nil clock uses the real clock.
func NewWorker(clock clockwork.Clock, interval time.Duration, logger zerolog.Logger) *Worker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{clock: clock, interval: interval, logger: logger}
}

// Run processes commands until ctx is done or in is closed, then closes out.
func (worker *Worker) Run(ctx context.Context, in <-chan Command, out chan<- Signal) {
	defer close(out)

	var (
		ticker    clockwork.Ticker
		tickC     <-chan time.Time
		remaining int
		epoch     uint64
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	send := func(signal Signal) bool {
		select {
		case out <- signal:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case command, ok := <-in:
			if !ok {
				return
			}
			switch command.Action {
			case ActionStart:
				if ticker != nil || command.Time <= 0 {
					continue
				}
				remaining = command.Time
				epoch = command.Epoch
				ticker = worker.clock.NewTicker(worker.interval)
				tickC = ticker.Chan()
			case ActionPause:
				stopTicker()
			case ActionReset:
				stopTicker()
				remaining = command.Time
				epoch = command.Epoch
				select {
				case out <- Signal{Remaining: remaining, Epoch: epoch}:
				default:
				}
			default:
				worker.logger.Warn().Str("action", string(command.Action)).Msg("tick worker: unknown action")
			}
		case <-tickC:
			remaining--
			if remaining < 0 {
				remaining = 0
			}
			if !send(Signal{Remaining: remaining, Epoch: epoch}) {
				return
			}
			if remaining == 0 {
				stopTicker()
				if !send(Signal{Expired: true, Epoch: epoch}) {
					return
				}
			}
		}
	}
}

// Isolated is a Source backed by a Worker goroutine. Every call is turned
// into a Command message; no state is shared with the worker.
type Isolated struct {
	commands chan Command
	signals  chan Signal
	cancel   context.CancelFunc
	done     chan struct{}
	logger   zerolog.Logger
	once     sync.Once
}

// NewIsolated starts a worker bound to ctx. Cancelling ctx terminates the
// worker, which closes the signal channel.
func NewIsolated(ctx context.Context, worker *Worker) *Isolated {
	runCtx, cancel := context.WithCancel(ctx)
	source := &Isolated{
		commands: make(chan Command, signalBuffer),
		signals:  make(chan Signal, signalBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   worker.logger,
	}
	go func() {
		defer close(source.done)
		worker.Run(runCtx, source.commands, source.signals)
	}()
	return source
}

// Start implements Source.
func (source *Isolated) Start(epoch uint64, seconds int) {
	source.post(Command{Action: ActionStart, Time: seconds, Epoch: epoch})
}

// Pause implements Source.
func (source *Isolated) Pause() {
	source.post(Command{Action: ActionPause})
}

// Reset implements Source.
func (source *Isolated) Reset(epoch uint64, seconds int) {
	source.post(Command{Action: ActionReset, Time: seconds, Epoch: epoch})
}

// Signals implements Source.
func (source *Isolated) Signals() <-chan Signal {
	return source.signals
}

// Close implements Source.
func (source *Isolated) Close() error {
	source.once.Do(func() {
		source.cancel()
		<-source.done
	})
	return nil
}

func (source *Isolated) post(command Command) {
	select {
	case source.commands <- command:
	case <-source.done:
		source.logger.Debug().Str("action", string(command.Action)).Msg("tick worker gone, command dropped")
	}
}
