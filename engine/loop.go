package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/fences/IcpDasDaqCore/channel"
	"github.com/fences/IcpDasDaqCore/device"
	"github.com/fences/IcpDasDaqCore/errors"
	"github.com/fences/IcpDasDaqCore/event"
)

// newLoopContext builds the context governing one loop generation. The
// loop never inherits a caller context: its lifetime is owned by the
// engine alone and ends only through Stop, Close or a hardware failure.
func newLoopContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

// run hosts one generation of the acquisition loop. It drives cycles until
// cancellation or a hardware failure, then settles the engine state and
// hands a failure to the retry machine.
//
// The done channel identifies this generation: state is only forced to
// Stopped while e.done still points at it, so a goroutine unwinding after
// a Stop timeout cannot clobber a newer generation's state.
func (e *Engine) run(ctx context.Context, done chan struct{}, rate float64, samplesPerCycle int) {
	defer close(done)

	stage, failure := e.loop(ctx, rate, samplesPerCycle)

	e.mu.Lock()
	current := e.done == done
	if current {
		e.state.Store(int32(StateStopped))
		e.metrics.RecordEngineState(e.boardName, false)
	}
	e.mu.Unlock()

	if failure == nil || !current {
		return
	}
	e.handleFailure(failure, stage)
}

// loop runs acquisition cycles until the context is cancelled (returns a
// nil error) or a hardware call fails (returns the failed stage and the
// error).
//
// Each cycle takes exactly one registry snapshot: the scan configuration
// and the processing both see the same channel set even if channels are
// added or recalibrated concurrently. The scan buffer is reused across
// cycles and only regrown when the channel count increases; the processor
// copies everything it publishes.
//
// Cancellation is observed only at the yield point after publishing, never
// between the three hardware calls. An in-flight cycle always completes or
// fails as a unit.
func (e *Engine) loop(ctx context.Context, rate float64, samplesPerCycle int) (string, error) {
	var buf []float32

	for {
		start := time.Now()
		views := e.registry.Snapshot()

		cfg := scanConfig(views, rate, samplesPerCycle)
		total := cfg.Total()
		if cap(buf) < total {
			buf = make([]float32, total)
		}
		block := buf[:total]

		if err := e.board.StartScan(cfg); err != nil {
			return "start", err
		}
		e.announceInitialized()
		if err := e.board.ReadScan(block, total); err != nil {
			return "read", err
		}
		if err := e.board.StopScan(); err != nil {
			return "stop", err
		}

		e.processor.Process(block, views, samplesPerCycle, start)

		elapsed := time.Since(start)
		e.bus.Publish(event.CycleEvent{
			Timestamp: start,
			Elapsed:   elapsed,
			Samples:   samplesPerCycle,
			Channels:  len(views),
		})
		e.metrics.RecordCycle(e.boardName, "ok", elapsed)
		e.metrics.RecordSamples(e.boardName, total)
		e.metrics.RecordChannels(e.boardName, len(views))

		select {
		case <-ctx.Done():
			return "", nil
		default:
			runtime.Gosched()
		}
	}
}

// scanConfig derives the hardware scan configuration from a channel
// snapshot.
func scanConfig(views []channel.View, rate float64, samplesPerCycle int) device.ScanConfig {
	channels := make([]int, len(views))
	ranges := make([]int, len(views))
	for i, v := range views {
		channels[i] = v.Index
		ranges[i] = v.RangeCode
	}
	return device.ScanConfig{
		Channels:          channels,
		Ranges:            ranges,
		Rate:              rate,
		SamplesPerChannel: samplesPerCycle,
	}
}

// announceInitialized publishes the one-time InitializedEvent after the
// first scan ever configured successfully on this engine.
func (e *Engine) announceInitialized() {
	e.announced.Do(func() {
		info := e.board.Info()
		e.bus.Publish(event.InitializedEvent{
			Timestamp: time.Now(),
			Board:     info.Model,
		})
		e.logger.Info("first scan configured, device ready", "board", info.Model)
	})
}

// handleFailure is the retry machine. It runs on the loop goroutine after
// an unrequested exit: count the failure, surface it, then either declare
// the restart budget exhausted or schedule a delayed restart.
//
// The stop-requested check and the counter increment happen under e.mu so
// they serialize against Stop: either Stop came first and the failure is
// a shutdown casualty, or the increment lands first and Stop's counter
// reset erases it.
func (e *Engine) handleFailure(err error, stage string) {
	e.mu.Lock()
	if e.stopRequested.Load() {
		e.mu.Unlock()
		// The failure raced a Stop. The exit was requested, so it
		// neither counts against the retry budget nor restarts.
		e.logger.Debug("cycle failed during shutdown", "stage", stage, "error", err)
		return
	}
	failures := int(e.retries.Add(1))
	e.mu.Unlock()

	code := errors.Code(err)

	e.metrics.RecordCycle(e.boardName, "error", 0)
	e.metrics.RecordHardwareError(e.boardName, stage)
	e.metrics.RecordError("engine", errors.Classify(err).String())
	e.publishError(code, fmt.Sprintf("scan %s failed: %v", stage, err))
	e.logger.Error("acquisition cycle failed",
		"stage", stage,
		"code", code,
		"consecutive_failures", failures,
		"error", err)

	if limit := e.cfg.RetryLimit; limit > 0 && failures > limit {
		e.publishError(code, fmt.Sprintf("%v: %d consecutive failures, limit %d",
			errors.ErrRetryExhausted, failures, limit))
		e.metrics.RecordError("engine", "fatal")
		e.logger.Error("restart limit exhausted, acquisition halted",
			"consecutive_failures", failures,
			"limit", limit)
		return
	}

	e.scheduleRestart(failures)
}

// scheduleRestart arms a delayed restart. The goroutine is owned by the
// engine through restartCancel and never awaited; Stop and Close cancel
// it. stop-requested is re-checked after the delay, immediately before
// re-entering the start core with the last validated rate and count.
func (e *Engine) scheduleRestart(attempt int) {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.restartCancel = cancel
	e.mu.Unlock()

	e.logger.Info("restart scheduled", "attempt", attempt, "delay", restartDelay)

	go func() {
		defer cancel()

		timer := time.NewTimer(restartDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.stopRequested.Load() || State(e.state.Load()) == StateRunning {
			return
		}

		e.startLocked(e.lastRate, e.lastSamples)
		e.metrics.RecordRestart(e.boardName)
		e.logger.Info("acquisition restarted",
			"attempt", attempt,
			"rate", e.lastRate,
			"samples_per_cycle", e.lastSamples)
	}()
}
