// Package engine drives cyclic data acquisition against a DAQ board.
//
// # Overview
//
// The Engine is the orchestrator of the acquisition pipeline. It owns the
// channel registry, runs the scan loop against a device.Board, hands raw
// blocks to the processor for filtering and calibration, and publishes
// lifecycle and failure events on the event bus. When hardware calls fail
// it restarts acquisition automatically, bounded by a configurable retry
// limit.
//
// # State Machine
//
// The engine has two states with explicit transitions:
//
//	            Start() [validated]
//	  stopped ──────────────────────> running
//	     ▲                               │
//	     │  Stop() / hardware failure    │
//	     └───────────────────────────────┘
//
// A hardware failure forces the stopped state first, then the retry
// machine decides whether a delayed restart re-enters running. Start on a
// running engine, Stop on a stopped engine and repeated Initialize calls
// are all safe; the first returns a validation error, the others are
// no-ops.
//
// # Acquisition Cycle
//
// Each loop iteration is one cycle:
//
//  1. Snapshot the channel registry once. The same snapshot drives both
//     the scan configuration and the processing, so a cycle never sees a
//     half-updated channel set.
//  2. Run the three-step hardware sequence: StartScan, ReadScan, StopScan.
//     Any failure aborts the cycle, discards partial data and exits the
//     loop. The first successful StartScan ever publishes a one-time
//     InitializedEvent.
//  3. Hand the block to the processor, which smooths, calibrates and
//     publishes the data events.
//  4. Publish a CycleEvent carrying the cycle latency.
//  5. Yield. This is the only point where cancellation is observed: an
//     in-flight hardware call is never interrupted, a cycle completes or
//     fails as a unit.
//
// The scan buffer is allocated once per start and reused across cycles;
// the processor copies everything it publishes.
//
// # Retry Machine
//
// An unrequested loop exit (hardware failure) increments the consecutive
// failure counter and publishes an ErrorEvent embedding the count. If the
// configured RetryLimit is positive and the counter exceeds it, a terminal
// ErrorEvent announces exhaustion and the engine stays stopped. Otherwise
// a restart is scheduled: after a 200 ms delay, and only if no stop was
// requested in the meantime, the loop re-enters with the last validated
// rate and sample count. The counter resets on a successful explicit
// Start and on Stop, never on the automatic restart path.
//
// # Error Handling
//
// Validation failures wrap sentinel errors (ErrNotInitialized,
// ErrNoChannels, ErrRateOutOfRange, ErrAlreadyRunning) with
// errors.WrapInvalid and are simultaneously published as ErrorEvents, so
// a subscriber observes the same rejection the caller gets back. Hardware
// failures carry the device status code into ErrorEvent.Code. Stop's
// bounded wait reports a timeout without failing the call.
//
// # Example Usage
//
//	bus := event.NewBus(logger, event.WithMetrics(registry.CoreMetrics()))
//	eng, err := engine.New(engine.Deps{
//		Board:   sim.New(sim.Config{}),
//		Bus:     bus,
//		Metrics: registry,
//		Logger:  logger,
//		Config:  engine.Config{Mode: processor.ModeAggregate, RetryLimit: 5},
//	})
//	if err != nil {
//		return err
//	}
//	if err := eng.Initialize(); err != nil {
//		return err
//	}
//	eng.AddChannel("pressure", 0, 0, 16, []float64{0, 1}, 0)
//	if err := eng.Start(1000, 256); err != nil {
//		return err
//	}
//	defer eng.Close()
package engine
