package pitch

import (
	"github.com/RyanBlaney/sonido-voice/algorithms/spectral"
	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
)

// autocorrelator computes window-corrected normalized autocorrelation for
// frames of one fixed length
type autocorrelator struct {
	fft       *spectral.FFT
	window    windowing.Window
	windowACF []float64 // autocorrelation of the window, normalized at lag 0
}

func newAutocorrelator(size int) (*autocorrelator, error) {
	window, err := windowing.New(windowing.TypeHann, size, true)
	if err != nil {
		return nil, err
	}

	fft := spectral.NewFFT()
	windowACF := fft.Autocorrelation(window.GetCoefficients())
	normalize(windowACF)

	return &autocorrelator{
		fft:       fft,
		window:    window,
		windowACF: windowACF,
	}, nil
}

// compute returns r[lag] for lags [0, maxLag]. The frame is modified: its
// mean is removed and the Hann window applied. A silent frame yields nil.
func (ac *autocorrelator) compute(frame []float64, maxLag int) []float64 {
	mean := 0.0
	for _, v := range frame {
		mean += v
	}
	mean /= float64(len(frame))
	for i := range frame {
		frame[i] -= mean
	}

	if err := ac.window.ApplyInPlace(frame); err != nil {
		return nil
	}

	acf := ac.fft.Autocorrelation(frame)
	if acf[0] <= 0 {
		return nil
	}
	normalize(acf)

	maxLag = min(maxLag, len(acf)-1)
	r := make([]float64, maxLag+1)
	for lag := range r {
		if ac.windowACF[lag] <= 0 {
			break
		}
		r[lag] = acf[lag] / ac.windowACF[lag]
	}

	return r
}

func normalize(acf []float64) {
	if len(acf) == 0 || acf[0] == 0 {
		return
	}
	scale := acf[0]
	for i := range acf {
		acf[i] /= scale
	}
}
