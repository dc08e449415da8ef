package spectral

// PowerSpectrum provides power spectral density computation
type PowerSpectrum struct {
	fft *FFT
}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{fft: NewFFT()}
}

// Compute returns |X[k]|^2 for the half spectrum of a windowed frame
func (ps *PowerSpectrum) Compute(frame []float64) []float64 {
	if len(frame) == 0 {
		return []float64{}
	}

	spectrum := ps.fft.ComputeReal(frame)
	power := make([]float64, len(spectrum))
	for i, v := range spectrum {
		power[i] = real(v)*real(v) + imag(v)*imag(v)
	}

	return power
}

// BinFrequencies returns the centre frequency of each half-spectrum bin for
// an n-point transform at sampleRate
func BinFrequencies(n, sampleRate int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	freqs := make([]float64, n/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(n)
	}

	return freqs
}
