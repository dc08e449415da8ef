package speech

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
)

// strengthClamp keeps r away from 0 and 1 so the log ratio stays finite
const strengthClamp = 1e-6

// HarmonicityResult holds harmonics-to-noise measures
type HarmonicityResult struct {
	HNR    float64   `json:"hnr"`    // dB, NaN without voiced frames
	NHR    float64   `json:"nhr"`    // 10^(-HNR/10), unclamped
	Series []float64 `json:"series"` // dB per voiced frame
}

// Harmonicity converts autocorrelation strength into harmonics-to-noise ratios
type Harmonicity struct{}

// NewHarmonicity creates a harmonicity analyzer
func NewHarmonicity() *Harmonicity {
	return &Harmonicity{}
}

// Analyze computes 10*log10(r/(1-r)) for every voiced frame of contour and
// averages them. NHR may exceed 1 when HNR is negative.
func (h *Harmonicity) Analyze(contour []pitch.Frame) HarmonicityResult {
	strengths := pitch.Strengths(contour)
	series := make([]float64, len(strengths))
	for i, r := range strengths {
		series[i] = FrameHNR(r)
	}

	hnr := common.Mean(series)
	return HarmonicityResult{
		HNR:    hnr,
		NHR:    math.Pow(10, -hnr/10),
		Series: series,
	}
}

// FrameHNR returns the harmonics-to-noise ratio in dB for a normalized
// autocorrelation peak r
func FrameHNR(r float64) float64 {
	r = common.Clamp(r, strengthClamp, 1-strengthClamp)
	return 10 * math.Log10(r/(1-r))
}
