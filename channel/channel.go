// Package channel maintains the registry of configured acquisition
// channels and hands out consistent per-cycle snapshots of it.
package channel

import "github.com/fences/IcpDasDaqCore/dsp"

// Channel is a registry-owned record. Names are display keys and may
// repeat; operations addressing a name touch the first match in
// registration order.
type Channel struct {
	Name      string
	Index     int
	RangeCode int
	Filter    *dsp.MovingAverage
	Coeffs    []float64
	Zero      float64
}

// View is an immutable projection of one channel for a single cycle:
// value copies of the scalar fields, a defensively copied coefficient
// slice, and the shared filter pointer. Sharing the filter is what lets
// smoothing state persist across cycles.
type View struct {
	Name      string
	Index     int
	RangeCode int
	Filter    *dsp.MovingAverage
	Coeffs    []float64
	Zero      float64
}

// Calibration returns the view's calibration chain.
func (v View) Calibration() dsp.Calibration {
	return dsp.Calibration{Coeffs: v.Coeffs, Zero: v.Zero}
}
