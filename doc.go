// Package daqcore is an acquisition core for multi-channel analog input
// boards: it samples a DAQ device at a fixed cadence, smooths and
// calibrates each channel, and publishes the results as in-process events.
//
// # Architecture
//
// The module is a pipeline of small packages, orchestrated by the engine:
//
//	┌─────────────────────────────────────┐
//	│             engine                  │  Lifecycle, scan loop,
//	│   (Start, Stop, retry machine)      │  automatic restart
//	└─────────────────────────────────────┘
//	           ↓ drives per cycle
//	┌─────────────────────────────────────┐
//	│         device.Board                │  StartScan / ReadScan /
//	│      (sim or real driver)           │  StopScan status contract
//	└─────────────────────────────────────┘
//	           ↓ raw block + channel snapshot
//	┌─────────────────────────────────────┐
//	│           processor                 │  Moving average + polynomial
//	│   (aggregate or per-channel mode)   │  calibration, parallel fan-out
//	└─────────────────────────────────────┘
//	           ↓ publishes on
//	┌─────────────────────────────────────┐
//	│           event.Bus                 │  Data, cycle latency, error
//	│  (subscribe/unsubscribe, bounded)   │  and readiness notifications
//	└─────────────────────────────────────┘
//
// Package roles:
//
//   - device: the hardware collaborator contract and driver status
//     vocabulary; device/sim is a deterministic simulated board.
//   - channel: the concurrent channel registry with atomic snapshots.
//   - dsp: the moving-average filter and Horner calibration math.
//   - processor: one raw block in, published data events out.
//   - engine: validation, the acquisition loop and the retry machine.
//   - event: typed notifications and the in-process bus.
//   - config, metric, health, errors: the ambient stack of YAML
//     configuration with environment overrides, Prometheus metrics,
//     health reporting and the classified error taxonomy.
//   - pkg/buffer, pkg/retry, pkg/worker: generic building blocks.
//
// # Data Contract
//
// Published blocks carry two views of every sample: Values holds the
// calibrated signal and Raw holds the smoothed-but-uncalibrated signal
// (post-filter, pre-calibration). Consumers that need the untouched
// hardware reading must disable the channel's filter.
//
// cmd/daqcore wires everything from a configuration file and runs until
// signalled; see config.Defaults for the knobs.
package daqcore
