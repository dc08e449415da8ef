// Package spectral wraps the FFT and provides the frame-wise power spectra
// and spectral balance measures used by the voice analysis stages.
package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// FFT provides Fast Fourier Transform functionality with real-input
// conventions (half spectrum forward, Hermitian inverse)
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeReal returns the non-negative frequency half of the spectrum,
// len(x)/2+1 bins from DC to Nyquist
func (f *FFT) ComputeReal(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return f.Compute(x)[:len(x)/2+1]
}

// Magnitude returns |X[k]| for each bin
func (f *FFT) Magnitude(spectrum []complex128) []float64 {
	mag := make([]float64, len(spectrum))
	for i, v := range spectrum {
		mag[i] = cmplx.Abs(v)
	}
	return mag
}

// ComputeInverseReal inverts a half spectrum of real values back to a real
// signal of length 2*(bins-1). The imaginary parts of DC and Nyquist are
// ignored.
func (f *FFT) ComputeInverseReal(half []float64) []float64 {
	bins := len(half)
	if bins < 2 {
		return []float64{}
	}

	n := 2 * (bins - 1)
	full := make([]complex128, n)
	for k := 0; k <= n/2; k++ {
		full[k] = complex(half[k], 0)
	}
	for k := 1; k < n/2; k++ {
		full[n-k] = complex(half[k], 0)
	}

	result := fft.IFFT(full)
	out := make([]float64, n)
	for i, v := range result {
		out[i] = real(v)
	}

	return out
}

// Autocorrelation returns the linear (non-circular) autocorrelation of x for
// lags [0, len(x)), computed by zero-padding to at least twice the length
func (f *FFT) Autocorrelation(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}

	size := common.NextPowerOfTwo(2 * n)
	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, v := range spectrum {
		spectrum[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}

	result := fft.IFFT(spectrum)
	acf := make([]float64, n)
	for i := range n {
		acf[i] = real(result[i])
	}

	return acf
}
