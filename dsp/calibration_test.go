package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHorner(t *testing.T) {
	tests := []struct {
		name     string
		x        float32
		coeffs   []float64
		expected float64
	}{
		{
			name:     "linear scale and offset",
			x:        2.0,
			coeffs:   []float64{10.0, 0.5}, // 10 + 0.5x
			expected: 11.0,
		},
		{
			name:     "single coefficient is a constant",
			x:        123.0,
			coeffs:   []float64{4.2},
			expected: 4.2,
		},
		{
			name:     "quadratic",
			x:        3.0,
			coeffs:   []float64{1.0, 2.0, 1.0}, // 1 + 2x + x^2
			expected: 16.0,
		},
		{
			name:     "negative x",
			x:        -2.0,
			coeffs:   []float64{0.0, 0.0, 1.0}, // x^2
			expected: 4.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, float64(Horner(tt.x, tt.coeffs)), 1e-5)
		})
	}
}

func TestHorner_EmptyCoeffsIsIdentity(t *testing.T) {
	for _, x := range []float32{0, 1, -3.5, 2.75e4} {
		assert.Equal(t, x, Horner(x, nil))
		assert.Equal(t, x, Horner(x, []float64{}))
	}
}

func TestCalibration_Apply(t *testing.T) {
	cal := Calibration{
		Coeffs: []float64{10.0, 0.5},
		Zero:   1.0,
	}
	// Horner(2) = 11, minus zero offset
	assert.InDelta(t, 10.0, float64(cal.Apply(2.0)), 1e-5)
}

func TestCalibration_EmptyCoeffsSubtractsZeroOnly(t *testing.T) {
	cal := Calibration{Zero: 0.25}
	assert.InDelta(t, 0.75, float64(cal.Apply(1.0)), 1e-6)

	// Zero-value calibration passes samples through untouched
	var identity Calibration
	assert.Equal(t, float32(3.5), identity.Apply(3.5))
}

func TestCalibration_Float64Precision(t *testing.T) {
	// Small differences that would be lost narrowing between stages survive
	// when the chain stays in float64
	cal := Calibration{
		Coeffs: []float64{1e-7, 1.0},
		Zero:   1e-7,
	}
	assert.InDelta(t, 1.0, float64(cal.Apply(1.0)), 1e-9)
}
