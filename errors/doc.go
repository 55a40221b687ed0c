// Package errors provides standardized error handling patterns for daqcore.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the acquisition engine: Transient (temporary, retryable), Invalid (bad input
// or configuration, non-retryable), and Fatal (unrecoverable, stop processing).
//
// The engine's four externally visible failure kinds map onto it directly:
//
//   - Configuration failures (bad Start arguments, uninitialized device, zero
//     channels, bad filter window) are Invalid and are rejected synchronously.
//   - Hardware operation failures (any nonzero driver status during the per-cycle
//     scan sequence) are Transient and feed the automatic restart path.
//   - Stop timeouts are Transient and are reported, never propagated as failure.
//   - Retry exhaustion is Fatal and terminal until a fresh explicit Start.
//
// The classification integrates with Go's standard error handling, supporting
// errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Return standard error variables for known conditions:
//
//	if reg.Len() == 0 {
//	    return errors.ErrNoChannels
//	}
//
// Wrap driver errors with component context:
//
//	if err := board.StartScan(cfg); err != nil {
//	    return errors.WrapTransient(err, "Engine", "cycle", "start scan")
//	}
//
// Check classification to route handling:
//
//	if errors.IsTransient(err) {
//	    // consult the retry policy
//	}
//
// Extract the numeric driver status for the error notification surface:
//
//	code := errors.Code(err) // 0 when the chain carries no driver status
package errors
