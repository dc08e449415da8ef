package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndVariance(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)

	// sample variance, n-1 denominator
	assert.InDelta(t, 5.0/3.0, Variance([]float64{1, 2, 3, 4}), 1e-12)
	assert.Zero(t, Variance([]float64{7}))
	assert.Zero(t, StandardDeviation(nil))
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 8.0, hi)

	lo, hi = MinMax(nil)
	assert.True(t, math.IsNaN(lo))
	assert.True(t, math.IsNaN(hi))
}

func TestFiniteValues(t *testing.T) {
	got := FiniteValues([]float64{1, math.NaN(), math.Inf(1), 2})
	assert.Equal(t, []float64{1, 2}, got)
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestLinRegression(t *testing.T) {
	slope, intercept := LinRegression([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	assert.InDelta(t, 2, slope, 1e-12)
	assert.InDelta(t, 1, intercept, 1e-12)

	slope, intercept = LinRegression([]float64{4}, []float64{9})
	assert.Zero(t, slope)
	assert.Equal(t, 9.0, intercept)
}

func TestParabolicPeak(t *testing.T) {
	pos, height := ParabolicPeak([]float64{0, 1, 0}, 1)
	assert.InDelta(t, 1, pos, 1e-12)
	assert.InDelta(t, 1, height, 1e-12)

	pos, height = ParabolicPeak([]float64{1, 3, 2}, 1)
	assert.InDelta(t, 1+1.0/6, pos, 1e-12)
	assert.InDelta(t, 3+1.0/24, height, 1e-12)

	// edges are returned as-is
	pos, height = ParabolicPeak([]float64{5, 1}, 0)
	assert.Equal(t, 0.0, pos)
	assert.Equal(t, 5.0, height)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 2, ArgMax([]float64{1, 3, 9, 9}))
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 1.0, Clamp(4, -1, 1))
	assert.Equal(t, -1.0, Clamp(-4, -1, 1))
	assert.Equal(t, 1024, NextPowerOfTwo(1000))
	assert.Equal(t, 1, NextPowerOfTwo(0))
}
