// Package windowing provides the tapering windows applied to analysis frames
// before spectral and autocorrelation processing.
package windowing

import (
	"fmt"
	"math"
	"strings"
)

// Type names a window function
type Type string

const (
	TypeHamming     Type = "hamming"
	TypeHann        Type = "hann"
	TypeBlackman    Type = "blackman"
	TypeRectangular Type = "rectangular"
)

// Window is a fixed-length tapering function
type Window interface {
	// Apply returns a windowed copy of signal, or nil on a length mismatch
	Apply(signal []float64) []float64

	// ApplyInPlace multiplies signal by the window coefficients
	ApplyInPlace(signal []float64) error

	GetCoefficients() []float64
	GetSize() int
	GetType() Type
}

// New creates a window of the given type and size.
//
// Periodic windows (symmetric=false) use N in the cosine denominator and match
// scipy's get_window(..., fftbins=True); symmetric windows use N-1 and match
// numpy.hamming and friends.
func New(windowType Type, size int, symmetric bool) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch Type(strings.ToLower(string(windowType))) {
	case TypeHamming, "":
		return NewHamming(size, symmetric), nil
	case TypeHann, "hanning":
		return NewHann(size, symmetric), nil
	case TypeBlackman:
		return NewBlackman(size, symmetric), nil
	case TypeRectangular, "boxcar", "none":
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("unknown window type %q", windowType)
	}
}

// cosineWindow holds the coefficients shared by all generalized cosine windows
type cosineWindow struct {
	windowType   Type
	size         int
	symmetric    bool
	coefficients []float64
}

// newCosineWindow evaluates sum_k (-1)^k a_k cos(2*pi*k*n/D) for n in [0, size)
func newCosineWindow(windowType Type, size int, symmetric bool, terms ...float64) *cosineWindow {
	w := &cosineWindow{
		windowType:   windowType,
		size:         size,
		symmetric:    symmetric,
		coefficients: make([]float64, size),
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}

	// A one-point symmetric window degenerates to a single unit coefficient
	if denominator <= 0 {
		for i := range w.coefficients {
			w.coefficients[i] = 1.0
		}
		return w
	}

	for i := range size {
		arg := 2 * math.Pi * float64(i) / denominator
		value := 0.0
		sign := 1.0
		for k, a := range terms {
			value += sign * a * math.Cos(float64(k)*arg)
			sign = -sign
		}
		w.coefficients[i] = value
	}

	return w
}

// Apply applies the window to a signal (creates new array)
func (w *cosineWindow) Apply(signal []float64) []float64 {
	if len(signal) != w.size {
		return nil
	}

	windowed := make([]float64, w.size)
	for i, c := range w.coefficients {
		windowed[i] = signal[i] * c
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *cosineWindow) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *cosineWindow) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetSize returns the window size
func (w *cosineWindow) GetSize() int {
	return w.size
}

// GetType returns the window type
func (w *cosineWindow) GetType() Type {
	return w.windowType
}

// IsSymmetric reports whether the window uses the N-1 denominator
func (w *cosineWindow) IsSymmetric() bool {
	return w.symmetric
}
