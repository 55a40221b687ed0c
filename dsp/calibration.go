package dsp

// Horner evaluates a polynomial at x using Horner's method. Coefficients are
// ordered constant term first, highest degree last. Empty coefficients leave
// the sample unchanged. Accumulation runs in float64 and narrows only at
// return.
func Horner(x float32, coeffs []float64) float32 {
	if len(coeffs) == 0 {
		return x
	}
	return float32(horner(float64(x), coeffs))
}

func horner(x float64, coeffs []float64) float64 {
	acc := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = acc*x + coeffs[i]
	}
	return acc
}

// Calibration maps a filtered voltage to engineering units: the polynomial
// is evaluated first, then the zero offset is subtracted.
type Calibration struct {
	Coeffs []float64
	Zero   float64
}

// Apply runs the calibration chain on one sample, keeping float64 precision
// until the final narrowing.
func (c Calibration) Apply(x float32) float32 {
	if len(c.Coeffs) == 0 {
		return float32(float64(x) - c.Zero)
	}
	return float32(horner(float64(x), c.Coeffs) - c.Zero)
}
