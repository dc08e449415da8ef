package features

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-voice/algorithms/cepstral"
	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
	"github.com/RyanBlaney/sonido-voice/algorithms/spectral"
	"github.com/RyanBlaney/sonido-voice/algorithms/speech"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// Diagnostics describes how much of the signal each stage could use
type Diagnostics struct {
	Duration              float64 `json:"duration"`    // seconds analyzed, after padding
	SampleRate            int     `json:"sample_rate"` // Hz
	PitchFrames           int     `json:"pitch_frames"`
	VoicedFrames          int     `json:"voiced_frames"`
	Periods               int     `json:"periods"`
	CepstralFrames        int     `json:"cepstral_frames"`
	DroppedCepstralFrames int     `json:"dropped_cepstral_frames"`
	BalanceFrames         int     `json:"balance_frames"`
	Voiced                bool    `json:"voiced"`
}

// DataPoint pairs the intensity and pitch at one instant
type DataPoint struct {
	Time      float64 `json:"time" yaml:"time"`
	Energy    float64 `json:"energy" yaml:"energy"`       // dB, 0 when undefined
	Frequency float64 `json:"frequency" yaml:"frequency"` // Hz, 0 when unvoiced
}

// SamplingData is the energy/frequency time series of a recording
type SamplingData struct {
	SamplingRate float64     `json:"sampling_rate" yaml:"sampling_rate"`
	DataPoints   []DataPoint `json:"data_points" yaml:"data_points"`
}

// Report is the outcome of analyzing one recording
type Report struct {
	Features    FeatureSet
	Sampling    *SamplingData
	Diagnostics Diagnostics
}

// Analyzer runs every voice analysis stage over a SampleBuffer
type Analyzer struct {
	config    *Config
	voice     *speech.VoiceQualityAnalyzer
	cpps      *cepstral.Analyzer
	balance   *spectral.BalanceAnalyzer
	intensity *speech.Intensity
	metrics   *Metrics
	logger    logging.Logger
}

// Option customizes an Analyzer
type Option func(*Analyzer)

// WithMetrics records analysis metrics on m instead of the global provider
func WithMetrics(m *Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithLogger replaces the component logger
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates an analyzer. A nil config uses DefaultConfig.
func NewAnalyzer(config *Config, opts ...Option) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := config.withWorkers()

	a := &Analyzer{
		config:    cfg,
		voice:     speech.NewVoiceQualityAnalyzer(cfg.VoiceQuality),
		cpps:      cepstral.NewAnalyzer(cfg.CPPS),
		balance:   spectral.NewBalanceAnalyzer(cfg.Balance),
		intensity: speech.NewIntensity(cfg.Intensity),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_analyzer",
		}),
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = defaultMetrics()
	}

	return a
}

// Config returns the effective configuration
func (a *Analyzer) Config() Config {
	return *a.config
}

// Analyze computes every metric for buf. When no metric can be computed the
// report is still returned together with ErrAllMetricsUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, buf *common.SampleBuffer) (*Report, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrMalformedInput)
	}

	start := time.Now()
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":    "Analyze",
		"sample_rate": buf.SampleRate(),
		"samples":     buf.Len(),
	})

	if a.config.MinDuration > 0 {
		buf = buf.PadTo(a.config.MinDuration)
	}

	report := &Report{
		Features: NewFeatureSet(),
		Diagnostics: Diagnostics{
			Duration:   buf.Duration(),
			SampleRate: buf.SampleRate(),
		},
	}

	voice := a.voice.AnalyzeVoiceQuality(buf)
	report.Features.Jitter = voice.Jitter
	report.Features.Shimmer = voice.Shimmer
	report.Features.HNR = voice.Harmonicity.HNR
	report.Features.NHR = voice.Harmonicity.NHR
	report.Features.F0 = voice.F0
	report.Diagnostics.PitchFrames = len(voice.Contour)
	report.Diagnostics.VoicedFrames = len(pitch.VoicedF0(voice.Contour))
	report.Diagnostics.Periods = voice.NumPeriods
	report.Diagnostics.Voiced = voice.Voiced

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cpps, err := a.cpps.Analyze(buf)
	if err != nil {
		return nil, fmt.Errorf("cepstral analysis failed: %w", err)
	}
	report.Features.CPPS = cpps.CPPS
	report.Diagnostics.CepstralFrames = cpps.Frames
	report.Diagnostics.DroppedCepstralFrames = cpps.Dropped

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	balance, err := a.balance.Analyze(buf)
	if err != nil {
		return nil, fmt.Errorf("spectral balance analysis failed: %w", err)
	}
	report.Features.LHRatio = LHRatio{Mean: balance.Mean, SD: balance.SD}
	report.Features.CSID = speech.CSID(cpps.CPPS, balance.Series)
	report.Diagnostics.BalanceFrames = len(balance.Series)

	if a.config.IncludeSampling {
		sampling, err := a.sampling(buf, voice.Contour)
		if err != nil {
			return nil, fmt.Errorf("intensity analysis failed: %w", err)
		}
		report.Sampling = sampling
	}

	elapsed := time.Since(start)
	a.metrics.RecordAnalysis(ctx, elapsed.Seconds(), cpps.Dropped)

	logger.Debug("analysis complete", logging.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"voiced":     report.Diagnostics.Voiced,
		"available":  report.Features.Available(),
	})

	if report.Features.AllUnavailable() {
		return report, fmt.Errorf("%w: %.3fs of audio at %d Hz", ErrAllMetricsUnavailable, buf.Duration(), buf.SampleRate())
	}

	return report, nil
}

// sampling pairs each intensity point with the pitch contour at that time
func (a *Analyzer) sampling(buf *common.SampleBuffer, contour []pitch.Frame) (*SamplingData, error) {
	points, err := a.intensity.Analyze(buf)
	if err != nil {
		return nil, err
	}

	data := &SamplingData{
		SamplingRate: float64(buf.SampleRate()),
		DataPoints:   make([]DataPoint, len(points)),
	}
	for i, p := range points {
		freq := pitch.ValueAt(contour, p.Time)
		if !common.IsFinite(freq) {
			freq = 0
		}
		data.DataPoints[i] = DataPoint{Time: p.Time, Energy: p.DB, Frequency: freq}
	}

	return data, nil
}
