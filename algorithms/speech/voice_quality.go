package speech

import (
	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// VoiceQualityConfig groups the pitch ranges and period bounds for the
// period-based measures
type VoiceQualityConfig struct {
	Pitch        pitch.Config       `json:"pitch"`        // contour used for F0 statistics
	Perturbation pitch.Config       `json:"perturbation"` // contour used for periods and HNR
	Bounds       PerturbationConfig `json:"bounds"`
}

// DefaultVoiceQualityConfig returns 75-600 Hz statistics and 75-500 Hz
// perturbation tracking
func DefaultVoiceQualityConfig() VoiceQualityConfig {
	return VoiceQualityConfig{
		Pitch:        pitch.DefaultConfig(),
		Perturbation: pitch.PerturbationConfig(),
		Bounds:       DefaultPerturbationConfig(),
	}
}

// VoiceQualityAnalyzer analyzes voice quality characteristics
type VoiceQualityAnalyzer struct {
	config       VoiceQualityConfig
	pitch        *pitch.Detector
	perturbation *pitch.Detector
	logger       logging.Logger
}

// VoiceQualityResult contains voice quality measurements
type VoiceQualityResult struct {
	// Perturbation measures
	Jitter  Jitter  `json:"jitter"`
	Shimmer Shimmer `json:"shimmer"`

	// Noise measures
	Harmonicity HarmonicityResult `json:"harmonicity"`

	// Pitch statistics
	F0 pitch.Statistics `json:"f0"`

	// Analysis metadata
	Contour    []pitch.Frame  `json:"contour"` // 75-600 Hz contour
	Periods    []pitch.Period `json:"-"`
	NumPeriods int            `json:"num_periods"` // Number of glottal periods marked
	Voiced     bool           `json:"voiced"`      // Any voiced frame was found
}

// NewVoiceQualityAnalyzer creates a new voice quality analyzer
func NewVoiceQualityAnalyzer(config VoiceQualityConfig) *VoiceQualityAnalyzer {
	return &VoiceQualityAnalyzer{
		config:       config,
		pitch:        pitch.NewDetector(config.Pitch),
		perturbation: pitch.NewDetector(config.Perturbation),
		logger:       logging.WithFields(logging.Fields{"component": "voice_quality"}),
	}
}

// AnalyzeVoiceQuality tracks pitch, marks periods, and derives jitter,
// shimmer, HNR and F0 statistics. An unvoiced buffer is not an error: every
// measure is NaN and Voiced is false.
func (vqa *VoiceQualityAnalyzer) AnalyzeVoiceQuality(buf *common.SampleBuffer) *VoiceQualityResult {
	contour := vqa.pitch.Contour(buf)
	perturbationContour := vqa.perturbation.Contour(buf)
	periods := vqa.perturbation.Periods(buf, perturbationContour)

	analyzer := NewPerturbation(vqa.config.Bounds)

	result := &VoiceQualityResult{
		Jitter:      analyzer.Jitter(periods),
		Shimmer:     analyzer.Shimmer(periods),
		Harmonicity: NewHarmonicity().Analyze(perturbationContour),
		F0:          pitch.ComputeStatistics(contour),
		Contour:     contour,
		Periods:     periods,
		NumPeriods:  len(periods),
		Voiced:      len(pitch.VoicedF0(contour)) > 0 || len(periods) > 0,
	}

	if !result.Voiced {
		vqa.logger.Warn("no voiced segments found", logging.Fields{
			"duration": buf.Duration(),
		})
	}

	return result
}
