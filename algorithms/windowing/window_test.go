package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHammingPeriodicMatchesScipy(t *testing.T) {
	// scipy.signal.get_window("hamming", 4, fftbins=True)
	w := NewHamming(4, false)
	expected := []float64{0.08, 0.54, 1.0, 0.54}

	coeffs := w.GetCoefficients()
	require.Len(t, coeffs, 4)
	for i := range expected {
		assert.InDelta(t, expected[i], coeffs[i], 1e-12, "index %d", i)
	}
}

func TestHammingSymmetricMatchesNumpy(t *testing.T) {
	// numpy.hamming(5)
	w := NewHamming(5, true)
	expected := []float64{0.08, 0.54, 1.0, 0.54, 0.08}

	coeffs := w.GetCoefficients()
	for i := range expected {
		assert.InDelta(t, expected[i], coeffs[i], 1e-12, "index %d", i)
	}
}

func TestNewByName(t *testing.T) {
	tests := []struct {
		name     Type
		expected Type
	}{
		{TypeHamming, TypeHamming},
		{"HANN", TypeHann},
		{"hanning", TypeHann},
		{TypeBlackman, TypeBlackman},
		{"boxcar", TypeRectangular},
		{"", TypeHamming},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			w, err := New(tt.name, 16, false)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, w.GetType())
			assert.Equal(t, 16, w.GetSize())
		})
	}

	_, err := New("kaiser-bessel", 16, false)
	assert.Error(t, err)

	_, err = New(TypeHamming, 0, false)
	assert.Error(t, err)
}

func TestApplyInPlaceLengthMismatch(t *testing.T) {
	w := NewHann(8, false)
	assert.Error(t, w.ApplyInPlace(make([]float64, 7)))
	assert.Nil(t, w.Apply(make([]float64, 9)))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	w := NewBlackman(8, true)
	signal := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	windowed := w.Apply(signal)
	require.Len(t, windowed, 8)
	assert.Equal(t, 1.0, signal[0])
	assert.InDelta(t, 0.0, windowed[0], 1e-12)
}

func TestSinglePointSymmetricWindowIsFinite(t *testing.T) {
	w := NewHamming(1, true)
	c := w.GetCoefficients()
	require.Len(t, c, 1)
	assert.False(t, math.IsNaN(c[0]))
	assert.Equal(t, 1.0, c[0])
}
