// Package retry provides exponential backoff retry with context cancellation.
//
// It serves the slow paths around the acquisition engine, most notably opening
// a data-acquisition board that needs settle time after power-up. It is NOT
// used by the engine's own cyclic restart machine, which runs on a fixed delay
// and a consecutive-failure counter owned by the engine.
//
// Basic usage:
//
//	cfg := retry.DefaultConfig()
//	err := retry.Do(ctx, cfg, func() error {
//	    return board.Open()
//	})
//
// Errors wrapped with retry.NonRetryable stop the loop immediately, which is
// how invalid configuration is kept from burning attempts meant for transient
// hardware faults. The optional Config.Notify hook observes failed attempts so
// callers can log them.
package retry
