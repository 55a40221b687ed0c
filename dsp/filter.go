// Package dsp implements the per-channel signal chain: moving-average
// smoothing and polynomial calibration. Filters carry state between
// acquisition cycles; calibration is stateless.
package dsp

import (
	"fmt"

	"github.com/fences/IcpDasDaqCore/errors"
	"github.com/fences/IcpDasDaqCore/pkg/buffer"
)

// MovingAverage smooths a sample stream over a fixed-size window. One
// instance serves one channel and must only ever see that channel's samples
// in acquisition order; it is not safe for concurrent use.
type MovingAverage struct {
	window *buffer.Ring[float32]
	sum    float64
}

// NewMovingAverage creates a filter with the given window size.
// Windows below 1 are rejected as invalid.
func NewMovingAverage(window int) (*MovingAverage, error) {
	if window < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidWindow,
			"MovingAverage", "New", fmt.Sprintf("window %d", window))
	}
	return &MovingAverage{window: buffer.NewRing[float32](window)}, nil
}

// Next feeds one sample through the filter and returns the current average.
// While the window is still filling the divisor is the number of samples
// seen so far, so early output is a true average rather than zero-padded.
func (m *MovingAverage) Next(x float32) float32 {
	if evicted, full := m.window.Push(x); full {
		m.sum -= float64(evicted)
	}
	m.sum += float64(x)
	return float32(m.sum / float64(m.window.Len()))
}

// Window returns the fixed window size.
func (m *MovingAverage) Window() int {
	return m.window.Cap()
}

// Count returns the number of samples currently in the window.
func (m *MovingAverage) Count() int {
	return m.window.Len()
}

// Reset discards all window state.
func (m *MovingAverage) Reset() {
	m.window.Reset()
	m.sum = 0
}
