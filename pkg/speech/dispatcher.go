package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-hazardcam/pkg/alert"
)

// ErrStopTimeout is returned by Stop when the worker has not exited in time.
var ErrStopTimeout = errors.New("speech: dispatcher did not stop in time")

// State is the dispatcher worker state.
type State int32

const (
	StateIdle     State = iota // Waiting on the queue
	StateDraining              // Merging queued items
	StateCooling               // Waiting out the inter-utterance gap
	StateSpeaking              // Speaker is playing
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateCooling:
		return "cooling"
	case StateSpeaking:
		return "speaking"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds dispatcher parameters.
type Config struct {
	Gap          time.Duration // Minimum silence between utterances
	PollInterval time.Duration // Busy polling and cancellation granularity
	MaxCoalesced int           // Cap applied when merging drained items
	Clock        clock.Clock
	Logger       *slog.Logger
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Gap:          800 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		MaxCoalesced: alert.DefaultMaxCoalesced,
		Clock:        clock.New(),
		Logger:       slog.Default(),
	}
}

// Stats counts dispatcher activity.
type Stats struct {
	Utterances int64 `json:"utterances"` // Speak calls that returned nil
	Merged     int64 `json:"merged"`     // Extra queue items folded into an utterance
	Errors     int64 `json:"errors"`     // Speak calls that failed or panicked
}

// Dispatcher is the single consumer of a Queue. It merges bursts, enforces
// the inter-utterance gap and serializes calls to the Speaker.
type Dispatcher struct {
	config  Config
	queue   *Queue
	speaker Speaker
	logger  *slog.Logger

	state      atomic.Int32
	utterances atomic.Int64
	merged     atomic.Int64
	errs       atomic.Int64

	// Owned by the worker goroutine.
	lastFinished time.Time

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewDispatcher creates a dispatcher. Call Start to launch the worker.
func NewDispatcher(config Config, queue *Queue, speaker Speaker) *Dispatcher {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 50 * time.Millisecond
	}
	if config.MaxCoalesced == 0 {
		config.MaxCoalesced = alert.DefaultMaxCoalesced
	}
	if speaker == nil {
		speaker = Silent{Logger: config.Logger}
	}
	return &Dispatcher{
		config:  config,
		queue:   queue,
		speaker: speaker,
		logger:  config.Logger.With("component", "speech"),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling Start more than once has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		go d.run(ctx)
		d.logger.Info("dispatcher started",
			"gap", d.config.Gap,
			"poll", d.config.PollInterval,
			"queue_cap", d.queue.Cap(),
		)
	})
}

// Stop signals the worker and waits up to timeout for it to exit. On
// timeout it returns ErrStopTimeout; the worker still exits at its next
// cancellation check.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.startOnce.Do(func() {
		// Never started: nothing to join.
		d.setState(StateStopped)
		close(d.done)
	})
	if d.cancel == nil {
		return nil
	}
	d.cancel()

	select {
	case <-d.done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-time.After(timeout):
		d.logger.Warn("dispatcher stop timed out", "timeout", timeout)
		return ErrStopTimeout
	}
}

// Done is closed when the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// State returns the current worker state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Utterances: d.utterances.Load(),
		Merged:     d.merged.Load(),
		Errors:     d.errs.Load(),
	}
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	defer d.setState(StateStopped)

	for {
		d.setState(StateIdle)
		first, err := d.queue.Pop(ctx)
		if err != nil {
			return
		}

		d.setState(StateDraining)
		items := append([]string{first}, d.queue.Drain()...)
		if len(items) > 1 {
			d.merged.Add(int64(len(items) - 1))
		}
		text := alert.Coalesce(items, d.config.MaxCoalesced)

		d.setState(StateCooling)
		if !d.cool(ctx) {
			return
		}

		d.setState(StateSpeaking)
		d.speak(ctx, text)
		if ctx.Err() != nil {
			return
		}
	}
}

// cool waits until Gap has passed since the last utterance finished. It
// returns false if cancelled.
func (d *Dispatcher) cool(ctx context.Context) bool {
	if d.lastFinished.IsZero() {
		return true
	}
	for {
		remaining := d.config.Gap - d.config.Clock.Since(d.lastFinished)
		if remaining <= 0 {
			return true
		}
		step := min(remaining, d.config.PollInterval)
		select {
		case <-ctx.Done():
			return false
		case <-d.config.Clock.After(step):
		}
	}
}

func (d *Dispatcher) speak(ctx context.Context, text string) {
	defer func() { d.lastFinished = d.config.Clock.Now() }()

	if err := d.callSpeaker(ctx, text); err != nil {
		if ctx.Err() != nil {
			d.logger.Debug("speech interrupted by stop", "text", text)
			return
		}
		d.errs.Add(1)
		d.logger.Error("speak failed", "text", text, "error", err)
		return
	}
	d.utterances.Add(1)
	d.logger.Debug("speaking", "text", text)

	ticker := d.config.Clock.Ticker(d.config.PollInterval)
	defer ticker.Stop()
	for d.busy() {
		select {
		case <-ctx.Done():
			if in, ok := d.speaker.(Interrupter); ok {
				in.Interrupt()
			}
			return
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) callSpeaker(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("speaker panic: %v", r)
		}
	}()
	return d.speaker.Speak(ctx, text)
}

func (d *Dispatcher) busy() (busy bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("speaker busy check panicked", "panic", r)
			busy = false
		}
	}()
	return d.speaker.Busy()
}
