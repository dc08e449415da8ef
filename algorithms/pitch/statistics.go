package pitch

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// Statistics summarizes the voiced part of a pitch contour
type Statistics struct {
	Mean           float64 `json:"mean"`            // Hz, NaN without voicing
	Min            float64 `json:"min"`             // Hz, NaN without voicing
	Max            float64 `json:"max"`             // Hz, NaN without voicing
	RangeSemitones float64 `json:"range_semitones"` // 12*log2(max/min), 0 when min <= 0
}

// ComputeStatistics returns F0 statistics over the voiced frames of contour.
// RangeSemitones is always finite.
func ComputeStatistics(contour []Frame) Statistics {
	voiced := VoicedF0(contour)
	if len(voiced) == 0 {
		return Statistics{
			Mean: math.NaN(),
			Min:  math.NaN(),
			Max:  math.NaN(),
		}
	}

	lo, hi := common.MinMax(voiced)
	stats := Statistics{
		Mean: common.Mean(voiced),
		Min:  lo,
		Max:  hi,
	}
	stats.RangeSemitones = RangeSemitones(lo, hi)

	return stats
}

// RangeSemitones returns 12*log2(hi/lo), or 0 when lo is not positive or
// either bound is not finite
func RangeSemitones(lo, hi float64) float64 {
	if !(lo > 0) || !common.IsFinite(lo) || !common.IsFinite(hi) {
		return 0
	}
	return 12 * math.Log2(hi/lo)
}

// VoicedF0 returns the F0 of every voiced frame in order
func VoicedF0(contour []Frame) []float64 {
	f0 := make([]float64, 0, len(contour))
	for _, f := range contour {
		if f.Voiced() {
			f0 = append(f0, f.F0)
		}
	}
	return f0
}

// Strengths returns the correlation strength of every voiced frame in order
func Strengths(contour []Frame) []float64 {
	r := make([]float64, 0, len(contour))
	for _, f := range contour {
		if f.Voiced() {
			r = append(r, f.Strength)
		}
	}
	return r
}

// ValueAt returns the F0 at time t, linearly interpolated between the two
// surrounding frames when both are voiced, and 0 otherwise
func ValueAt(contour []Frame, t float64) float64 {
	if len(contour) == 0 || t < contour[0].Time || t > contour[len(contour)-1].Time {
		return 0
	}

	for i := 1; i < len(contour); i++ {
		if t > contour[i].Time {
			continue
		}
		a, b := contour[i-1], contour[i]
		if !a.Voiced() || !b.Voiced() {
			if t == b.Time {
				return b.F0
			}
			return 0
		}
		frac := (t - a.Time) / (b.Time - a.Time)
		return a.F0 + frac*(b.F0-a.F0)
	}

	return contour[0].F0
}
