// Package features runs the voice analysis stages over a recording and
// assembles the resulting biomarkers into a single record, for one file or
// averaged across many.
package features

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
	"github.com/RyanBlaney/sonido-voice/algorithms/speech"
)

// LHRatio summarizes the low/high spectral balance series
type LHRatio struct {
	Mean float64
	SD   float64
}

// FeatureSet is the complete biomarker record of one recording. NaN marks a
// metric whose preconditions were not met.
type FeatureSet struct {
	Jitter  speech.Jitter
	Shimmer speech.Shimmer
	HNR     float64
	NHR     float64
	F0      pitch.Statistics
	CPPS    float64
	LHRatio LHRatio
	CSID    float64
}

// NewFeatureSet returns a record with every metric unavailable. RangeSemitones
// starts at 0 since it is never undefined.
func NewFeatureSet() FeatureSet {
	nan := math.NaN()
	return FeatureSet{
		Jitter:  speech.Jitter{Local: nan, RAP: nan, PPQ5: nan, DDP: nan},
		Shimmer: speech.Shimmer{Local: nan, APQ3: nan, APQ5: nan, APQ11: nan, DDA: nan},
		HNR:     nan,
		NHR:     nan,
		F0:      pitch.Statistics{Mean: nan, Min: nan, Max: nan},
		CPPS:    nan,
		LHRatio: LHRatio{Mean: nan, SD: nan},
		CSID:    nan,
	}
}

// Value returns the metric stored under a flat key such as "jitter_local"
func (fs *FeatureSet) Value(key string) (float64, bool) {
	f, ok := fieldIndex[key]
	if !ok {
		return 0, false
	}
	return *f.value(fs), true
}

// Available returns how many metrics hold a finite value, not counting
// metrics with a defined fallback
func (fs *FeatureSet) Available() int {
	n := 0
	for _, f := range fields {
		if !f.fallback && common.IsFinite(*f.value(fs)) {
			n++
		}
	}
	return n
}

// AllUnavailable reports whether no metric could be computed
func (fs *FeatureSet) AllUnavailable() bool {
	return fs.Available() == 0
}
