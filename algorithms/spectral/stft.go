package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// STFT computes frame-wise power spectra over a Framer
type STFT struct {
	power   *PowerSpectrum
	workers int
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Power          [][]float64 `json:"power"`           // Time x Frequency power matrix
	Times          []float64   `json:"times"`           // Frame centre times in seconds
	Frequencies    []float64   `json:"frequencies"`     // Bin centre frequencies in Hz
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator. workers <= 0 sizes the pool from
// the frame count; 1 runs sequentially.
func NewSTFT(workers int) *STFT {
	return &STFT{
		power:   NewPowerSpectrum(),
		workers: workers,
	}
}

// Compute returns the power spectrogram of buf. A buffer shorter than one
// frame yields an empty result, not an error.
func (s *STFT) Compute(buf *common.SampleBuffer, framer *common.Framer) (*STFTResult, error) {
	if buf == nil || framer == nil {
		return nil, fmt.Errorf("stft requires a buffer and a framer")
	}

	windowSize := framer.FrameLength()
	hopSize := framer.HopLength()
	numFrames := framer.Count(buf)

	power := make([][]float64, numFrames)
	times := make([]float64, numFrames)

	// Each worker writes only its own frame index
	common.ParallelFor(numFrames, s.workers, func(i int) {
		frame := framer.FrameAt(buf, i)
		power[i] = s.power.Compute(frame.Samples)
		times[i] = frame.Time
	})

	result := &STFTResult{
		Power:          power,
		Times:          times,
		Frequencies:    BinFrequencies(windowSize, buf.SampleRate()),
		TimeFrames:     numFrames,
		FreqBins:       windowSize/2 + 1,
		SampleRate:     buf.SampleRate(),
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(buf.SampleRate()) / float64(max(windowSize, 1)),
		TimeResolution: float64(hopSize) / float64(buf.SampleRate()),
	}

	return result, nil
}
