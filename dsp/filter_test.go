package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	daqerrors "github.com/fences/IcpDasDaqCore/errors"
)

func TestNewMovingAverage_RejectsWindowBelowOne(t *testing.T) {
	for _, window := range []int{0, -1, -100} {
		ma, err := NewMovingAverage(window)
		require.Error(t, err, "window %d", window)
		assert.Nil(t, ma)
		assert.True(t, daqerrors.IsInvalid(err))
		assert.ErrorIs(t, err, daqerrors.ErrInvalidWindow)
	}
}

func TestMovingAverage_WarmUpUsesActualCount(t *testing.T) {
	ma, err := NewMovingAverage(3)
	require.NoError(t, err)

	// True averages while the window fills, then sliding average
	assert.InDelta(t, 1.0, ma.Next(1), 1e-6)
	assert.InDelta(t, 1.5, ma.Next(2), 1e-6)
	assert.InDelta(t, 2.0, ma.Next(3), 1e-6)
	assert.InDelta(t, 3.0, ma.Next(4), 1e-6)
}

func TestMovingAverage_WindowOnePassesThrough(t *testing.T) {
	ma, err := NewMovingAverage(1)
	require.NoError(t, err)

	for _, x := range []float32{5, -2.5, 0, 1e6} {
		assert.InDelta(t, float64(x), float64(ma.Next(x)), 1e-3)
	}
}

func TestMovingAverage_SlidingWindowEvictsOldest(t *testing.T) {
	ma, err := NewMovingAverage(4)
	require.NoError(t, err)

	inputs := []float32{10, 20, 30, 40, 50, 60}
	expected := []float64{10, 15, 20, 25, 35, 45}

	for i, x := range inputs {
		assert.InDelta(t, expected[i], float64(ma.Next(x)), 1e-6, "sample %d", i)
	}
}

func TestMovingAverage_WindowAndCount(t *testing.T) {
	ma, err := NewMovingAverage(5)
	require.NoError(t, err)

	assert.Equal(t, 5, ma.Window())
	assert.Equal(t, 0, ma.Count())

	ma.Next(1)
	ma.Next(2)
	assert.Equal(t, 2, ma.Count())

	for i := 0; i < 10; i++ {
		ma.Next(float32(i))
	}
	assert.Equal(t, 5, ma.Count())
	assert.Equal(t, 5, ma.Window())
}

func TestMovingAverage_Reset(t *testing.T) {
	ma, err := NewMovingAverage(3)
	require.NoError(t, err)

	ma.Next(100)
	ma.Next(200)
	ma.Reset()

	assert.Equal(t, 0, ma.Count())
	// First sample after reset averages over count 1 again
	assert.InDelta(t, 7.0, ma.Next(7), 1e-6)
}

func TestMovingAverage_LongStreamStaysAccurate(t *testing.T) {
	ma, err := NewMovingAverage(10)
	require.NoError(t, err)

	// Constant input must report the constant regardless of stream length
	var got float32
	for i := 0; i < 100000; i++ {
		got = ma.Next(2.5)
	}
	assert.InDelta(t, 2.5, float64(got), 1e-6)
}
