package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum.
// Empty input yields NaN so callers can propagate "not available".
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance (divisor n-1) using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation, 0 for fewer
// than two values
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// MinMax returns the smallest and largest values, NaN for empty input
func MinMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(data), floats.Max(data)
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FiniteValues returns the finite elements of data in order
func FiniteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// LinRegression performs simple least-squares linear regression and returns
// slope and intercept. A single point yields a flat line through it.
func LinRegression(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, 0
	}
	if len(x) == 1 {
		return 0, y[0]
	}

	// Use gonum's linear regression
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return beta, alpha
}

// ArgMax returns the index of the first maximum, -1 for empty input
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// ParabolicPeak refines a discrete peak at idx by fitting a parabola through
// its neighbours. It returns the fractional position and interpolated height.
func ParabolicPeak(data []float64, idx int) (float64, float64) {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx), data[idx]
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(idx), y2
	}

	offset := -b / (2 * a)
	if offset < -1 || offset > 1 {
		return float64(idx), y2
	}

	return float64(idx) + offset, y2 - b*b/(4*a)
}

// Clamp constrains a value to a range
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
