// Package cepstral measures cepstral peak prominence, the height of the
// dominant rahmonic above the cepstrum's linear trend.
package cepstral

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/spectral"
	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// Config holds CPPS analysis parameters
type Config struct {
	TargetSampleRate int     `json:"target_sample_rate"` // resample before analysis, 0 disables
	FrameLength      float64 `json:"frame_length"`       // seconds
	HopLength        float64 `json:"hop_length"`         // seconds
	FMin             float64 `json:"fmin"`               // lowest pitch searched, sets the longest quefrency
	FMax             float64 `json:"fmax"`               // highest pitch searched, sets the shortest quefrency
	Epsilon          float64 `json:"epsilon"`            // added to magnitudes before the log
	Workers          int     `json:"workers"`            // frame workers, 0 = auto
}

// DefaultConfig returns 16 kHz analysis with 10 ms frames, 5 ms hop and a
// 60-330 Hz pitch search band
func DefaultConfig() Config {
	return Config{
		TargetSampleRate: 16000,
		FrameLength:      0.01,
		HopLength:        0.005,
		FMin:             60,
		FMax:             330,
		Epsilon:          1e-12,
	}
}

// Result is the smoothed cepstral peak prominence and its frame accounting
type Result struct {
	CPPS     float64   `json:"cpps"`    // dB, NaN when no frame qualified
	Frames   int       `json:"frames"`  // frames examined
	Dropped  int       `json:"dropped"` // frames without a usable quefrency band
	PerFrame []float64 `json:"-"`       // CPP of each qualifying frame in order
}

// Analyzer computes CPPS over a SampleBuffer
type Analyzer struct {
	config Config
	fft    *spectral.FFT
	logger logging.Logger
}

// NewAnalyzer creates a CPPS analyzer
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{
		config: config,
		fft:    spectral.NewFFT(),
		logger: logging.WithFields(logging.Fields{"component": "cpps"}),
	}
}

// Analyze computes the mean cepstral peak prominence over every complete
// frame of buf. Frames are processed on a worker pool and reduced in frame
// order, so the result does not depend on the worker count.
func (a *Analyzer) Analyze(buf *common.SampleBuffer) (*Result, error) {
	if a.config.TargetSampleRate > 0 && buf.SampleRate() != a.config.TargetSampleRate {
		resampled, err := buf.Resample(a.config.TargetSampleRate)
		if err != nil {
			return nil, err
		}
		buf = resampled
	}

	framer, err := common.NewFramer(buf.SampleRate(), common.FramerConfig{
		FrameLength: a.config.FrameLength,
		HopLength:   a.config.HopLength,
		Window:      windowing.TypeHamming,
	})
	if err != nil {
		return nil, err
	}

	n := framer.Count(buf)
	cpp := make([]float64, n)
	ok := make([]bool, n)

	common.ParallelFor(n, a.config.Workers, func(i int) {
		frame := framer.FrameAt(buf, i)
		cpp[i], ok[i] = a.frameCPP(frame.Samples, buf.SampleRate())
	})

	result := &Result{Frames: n, PerFrame: make([]float64, 0, n)}
	for i := range n {
		if !ok[i] {
			result.Dropped++
			continue
		}
		result.PerFrame = append(result.PerFrame, cpp[i])
	}

	result.CPPS = math.NaN()
	if len(result.PerFrame) > 0 {
		result.CPPS = common.Mean(result.PerFrame)
	}

	a.logger.Debug("cepstral peak prominence computed", logging.Fields{
		"frames":      n,
		"dropped":     result.Dropped,
		"sample_rate": buf.SampleRate(),
	})

	return result, nil
}

// frameCPP returns the prominence of one windowed frame and whether the
// quefrency band held any coefficient
func (a *Analyzer) frameCPP(frame []float64, sampleRate int) (float64, bool) {
	spectrum := a.fft.ComputeReal(frame)
	logMag := a.fft.Magnitude(spectrum)
	for i, m := range logMag {
		logMag[i] = math.Log(m + a.config.Epsilon)
	}

	cepstrum := a.fft.ComputeInverseReal(logMag)

	qMin := 1.0 / a.config.FMax
	qMax := 1.0 / a.config.FMin

	var quefrency, values []float64
	for i, c := range cepstrum {
		q := float64(i) / float64(sampleRate)
		if q >= qMin && q <= qMax {
			quefrency = append(quefrency, q)
			values = append(values, c)
		}
	}

	if len(values) == 0 {
		return 0, false
	}

	slope, intercept := common.LinRegression(quefrency, values)
	peak := common.ArgMax(values)
	trend := intercept + slope*quefrency[peak]

	return (values[peak] - trend) * 20 / math.Ln10, true
}
