package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fences/IcpDasDaqCore/channel"
	"github.com/fences/IcpDasDaqCore/device"
	"github.com/fences/IcpDasDaqCore/errors"
	"github.com/fences/IcpDasDaqCore/event"
	"github.com/fences/IcpDasDaqCore/health"
	"github.com/fences/IcpDasDaqCore/metric"
	"github.com/fences/IcpDasDaqCore/processor"
)

const (
	// MinSampleRate is the lowest per-channel sampling rate Start accepts, in Hz.
	MinSampleRate = 100.0
	// MaxSampleRate is the highest per-channel sampling rate Start accepts, in Hz.
	MaxSampleRate = 200000.0

	// restartDelay is the pause between an unrequested loop exit and the
	// automatic restart attempt.
	restartDelay = 200 * time.Millisecond

	// stopWait bounds how long Stop waits for the acquisition loop to
	// acknowledge cancellation before forcing the stopped state.
	stopWait = 500 * time.Millisecond
)

// State is the acquisition lifecycle state.
type State int32

const (
	// StateStopped means no acquisition loop is running.
	StateStopped State = iota
	// StateRunning means the acquisition loop is cycling.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config carries the tunable engine knobs. The rate bounds, restart delay
// and stop wait are fixed by contract and not configurable.
type Config struct {
	// Mode selects how processed data is published (aggregate or perchannel).
	Mode processor.Mode
	// Parallel enables fan-out processing for large cycles.
	Parallel bool
	// RetryLimit caps consecutive automatic restarts after hardware
	// failures. Zero or negative means unlimited.
	RetryLimit int
}

// Deps carries everything an Engine needs. Board and Bus are required.
type Deps struct {
	Board   device.Board
	Bus     *event.Bus
	Metrics *metric.MetricsRegistry
	Logger  *slog.Logger
	Config  Config
}

// Engine drives cyclic acquisition against one board: it owns the channel
// registry, runs the scan loop, hands blocks to the processor and manages
// automatic restarts after hardware failures.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	board     device.Board
	bus       *event.Bus
	registry  *channel.Registry
	processor *processor.Processor
	logger    *slog.Logger
	metrics   *metric.Metrics
	cfg       Config

	// mu guards lifecycle transitions and the loop/restart bookkeeping
	// below. It is never held across a hardware call or a bounded wait.
	mu            sync.Mutex
	cancel        func()        // cancels the current loop context
	done          chan struct{} // closed when the current loop goroutine exits
	restartCancel func()        // cancels a pending restart, nil when none
	lastRate      float64       // validated by the last public Start
	lastSamples   int

	state         atomic.Int32
	initialized   atomic.Bool
	stopRequested atomic.Bool
	retries       atomic.Int32

	boardName string
	announced sync.Once
}

// New wires an Engine from its dependencies. A nil Metrics registry
// disables metric export; the engine still records into unregistered
// collectors so no call site needs a nil check.
func New(deps Deps) (*Engine, error) {
	if deps.Board == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil board"), "engine", "New", "dependency check")
	}
	if deps.Bus == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil event bus"), "engine", "New", "dependency check")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := metric.NewMetrics()
	if deps.Metrics != nil {
		metrics = deps.Metrics.CoreMetrics()
	}

	proc := processor.New(deps.Bus, deps.Logger, processor.Config{
		Mode:     deps.Config.Mode,
		Parallel: deps.Config.Parallel,
	})

	return &Engine{
		board:     deps.Board,
		bus:       deps.Bus,
		registry:  channel.NewRegistry(),
		processor: proc,
		logger:    logger.With("component", "engine"),
		metrics:   metrics,
		cfg:       deps.Config,
		boardName: "uninitialized",
	}, nil
}

// Initialize opens the board. It must be called before Start and is
// idempotent; a second call on an open board is a no-op.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized.Load() {
		return nil
	}

	if err := e.board.Open(); err != nil {
		e.metrics.RecordError("engine", errors.Classify(err).String())
		return errors.WrapTransient(err, "engine", "Initialize", "open board")
	}

	info := e.board.Info()
	e.boardName = info.Model
	e.initialized.Store(true)
	e.logger.Info("board initialized",
		"model", info.Model,
		"serial", info.SerialNumber,
		"max_channels", info.MaxChannels,
		"max_rate", info.MaxRate)
	return nil
}

// Start validates the request and launches the acquisition loop. rate is
// the per-channel sampling rate in Hz, samplesPerCycle the number of
// samples read per channel each cycle.
//
// Validation happens before any state change. Each rejection is returned
// AND published as an ErrorEvent so subscribers see the same failure a
// caller does. A successful Start resets the restart counter; the
// automatic restart path does not.
func (e *Engine) Start(rate float64, samplesPerCycle int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateStart(rate, samplesPerCycle); err != nil {
		wrapped := errors.WrapInvalid(err, "engine", "Start", "validation")
		e.publishError(errors.Code(err), wrapped.Error())
		e.metrics.RecordError("engine", "invalid")
		e.logger.Warn("start rejected", "rate", rate, "samples", samplesPerCycle, "error", err)
		return wrapped
	}

	e.retries.Store(0)
	e.stopRequested.Store(false)
	e.lastRate = rate
	e.lastSamples = samplesPerCycle

	e.startLocked(rate, samplesPerCycle)
	e.logger.Info("acquisition started",
		"rate", rate,
		"samples_per_cycle", samplesPerCycle,
		"channels", e.registry.Len())
	return nil
}

// validateStart checks a start request against the current engine state.
// Callers hold e.mu.
func (e *Engine) validateStart(rate float64, samples int) error {
	if !e.initialized.Load() {
		return errors.ErrNotInitialized
	}
	if e.registry.Len() == 0 {
		return errors.ErrNoChannels
	}
	if rate < MinSampleRate || rate > MaxSampleRate {
		return fmt.Errorf("%w: %g Hz outside [%g, %g]", errors.ErrRateOutOfRange, rate, MinSampleRate, MaxSampleRate)
	}
	if samples <= 0 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidSamples, samples)
	}
	if State(e.state.Load()) == StateRunning {
		return errors.ErrAlreadyRunning
	}
	return nil
}

// startLocked is the start core shared by Start and the restart path. It
// flips the state and spawns the loop goroutine; it never touches the
// restart counter. Callers hold e.mu and have validated the request.
func (e *Engine) startLocked(rate float64, samples int) {
	ctx, cancel := newLoopContext()
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.state.Store(int32(StateRunning))
	e.metrics.RecordEngineState(e.boardName, true)

	go e.run(ctx, done, rate, samples)
}

// Stop requests loop exit, cancels any pending restart and waits up to
// 500 ms for the loop goroutine. A wait timeout is reported (log, error
// event, metric) but never propagated: the engine is forced to Stopped
// either way and the restart counter is reset. Stopping a stopped engine
// is a no-op returning nil.
//
// After a timeout the loop goroutine may still unwind in the background;
// it observes the stop request and exits without side effects.
func (e *Engine) Stop() error {
	e.mu.Lock()
	e.stopRequested.Store(true)
	if e.restartCancel != nil {
		e.restartCancel()
		e.restartCancel = nil
	}

	if State(e.state.Load()) == StateStopped {
		// Nothing is running. A pending restart was just cancelled, so
		// only the counter is left to clear.
		e.retries.Store(0)
		e.mu.Unlock()
		return nil
	}

	if e.cancel != nil {
		e.cancel()
	}
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
	case <-time.After(stopWait):
		msg := fmt.Sprintf("%v after %v", errors.ErrStopTimeout, stopWait)
		e.publishError(0, msg)
		e.metrics.RecordError("engine", "transient")
		e.logger.Warn("acquisition loop did not exit in time, forcing stop", "wait", stopWait)
	}

	e.state.Store(int32(StateStopped))
	e.metrics.RecordEngineState(e.boardName, false)
	e.retries.Store(0)
	e.logger.Info("acquisition stopped")
	return nil
}

// Close stops acquisition and closes the board. The engine can be
// initialized again afterwards.
func (e *Engine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized.Load() {
		return nil
	}
	e.initialized.Store(false)
	if err := e.board.Close(); err != nil {
		return errors.Wrap(err, "engine", "Close", "close board")
	}
	e.logger.Info("board closed", "model", e.boardName)
	return nil
}

// AddChannel registers a channel for acquisition. A filterWindow of zero
// disables smoothing for the channel; coeffs and zero configure the
// calibration polynomial. Channels may be added while running; the change
// takes effect at the next cycle.
func (e *Engine) AddChannel(name string, index, rangeCode, filterWindow int, coeffs []float64, zero float64) error {
	if err := e.registry.Add(name, index, rangeCode, filterWindow, coeffs, zero); err != nil {
		e.metrics.RecordError("engine", "invalid")
		return err
	}
	e.logger.Info("channel added", "name", name, "index", index, "filter_window", filterWindow)
	return nil
}

// ClearAllChannels removes every registered channel.
func (e *Engine) ClearAllChannels() {
	e.registry.Clear()
	e.logger.Info("channels cleared")
}

// UpdateZero replaces the zero offset of the named channel. Unknown names
// are ignored.
func (e *Engine) UpdateZero(name string, value float64) {
	e.registry.UpdateZero(name, value)
}

// UpdateCalibration replaces the calibration polynomial of the named
// channel. Unknown names are ignored.
func (e *Engine) UpdateCalibration(name string, coeffs []float64) {
	e.registry.UpdateCalibration(name, coeffs)
}

// Channels returns an immutable view of the registered channels.
func (e *Engine) Channels() []channel.View {
	return e.registry.Snapshot()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Retries returns the consecutive-failure counter driving the restart
// machine. It resets on a successful explicit Start and on Stop.
func (e *Engine) Retries() int {
	return int(e.retries.Load())
}

// Health reports the engine's health for the monitoring surface.
func (e *Engine) Health() health.Status {
	switch {
	case e.State() == StateRunning:
		return health.NewHealthy("engine",
			fmt.Sprintf("acquiring %d channels", e.registry.Len()))
	case e.Retries() > 0:
		return health.NewDegraded("engine",
			fmt.Sprintf("recovering from hardware failure, %d consecutive failures", e.Retries()))
	case !e.initialized.Load():
		return health.NewStopped("engine", "device not initialized")
	default:
		return health.NewStopped("engine", "acquisition stopped")
	}
}

// publishError emits an engine-sourced ErrorEvent. Channel -1 marks an
// error not attributable to a single channel. Every message carries the
// current retry count so subscribers can line any error up with the
// restart machine, whatever path produced it.
func (e *Engine) publishError(code int, msg string) {
	e.bus.Publish(event.ErrorEvent{
		Source:  "engine",
		Channel: -1,
		Code:    code,
		Message: fmt.Sprintf("%s (retry count %d)", msg, e.retries.Load()),
	})
}
