// Package speech computes clinical voice measures from pitch periods,
// autocorrelation strength, and signal energy.
package speech

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
)

// PerturbationConfig bounds which periods take part in jitter and shimmer
type PerturbationConfig struct {
	ShortestPeriod     float64 `json:"shortest_period"`      // seconds
	LongestPeriod      float64 `json:"longest_period"`       // seconds
	MaxPeriodFactor    float64 `json:"max_period_factor"`    // largest ratio between neighbouring periods
	MaxAmplitudeFactor float64 `json:"max_amplitude_factor"` // largest ratio between neighbouring amplitudes
}

// DefaultPerturbationConfig returns 0.1-20 ms periods, factor 1.3 and
// amplitude factor 1.6
func DefaultPerturbationConfig() PerturbationConfig {
	return PerturbationConfig{
		ShortestPeriod:     0.0001,
		LongestPeriod:      0.02,
		MaxPeriodFactor:    1.3,
		MaxAmplitudeFactor: 1.6,
	}
}

// Jitter holds period perturbation ratios. NaN means not enough periods.
type Jitter struct {
	Local float64 `json:"local"`
	RAP   float64 `json:"rap"`
	PPQ5  float64 `json:"ppq5"`
	DDP   float64 `json:"ddp"`
}

// Shimmer holds amplitude perturbation ratios. NaN means not enough periods.
type Shimmer struct {
	Local float64 `json:"local"`
	APQ3  float64 `json:"apq3"`
	APQ5  float64 `json:"apq5"`
	APQ11 float64 `json:"apq11"`
	DDA   float64 `json:"dda"`
}

// Perturbation measures cycle-to-cycle variation of period and amplitude
type Perturbation struct {
	config PerturbationConfig
}

// NewPerturbation creates a perturbation analyzer
func NewPerturbation(config PerturbationConfig) *Perturbation {
	return &Perturbation{config: config}
}

// Jitter computes period perturbation over periods
func (p *Perturbation) Jitter(periods []pitch.Period) Jitter {
	segments := p.segments(periods, false)
	durations := flatten(segments)

	j := Jitter{
		Local: perturbationRatio(segments, durations, 1, 2),
		RAP:   perturbationRatio(segments, durations, 3, 3),
		PPQ5:  perturbationRatio(segments, durations, 5, 5),
	}
	j.DDP = 2 * j.RAP

	return j
}

// Shimmer computes amplitude perturbation over periods
func (p *Perturbation) Shimmer(periods []pitch.Period) Shimmer {
	segments := p.segments(periods, true)
	amplitudes := flatten(segments)

	s := Shimmer{
		Local: perturbationRatio(segments, amplitudes, 1, 2),
		APQ3:  perturbationRatio(segments, amplitudes, 3, 3),
		APQ5:  perturbationRatio(segments, amplitudes, 5, 5),
		APQ11: perturbationRatio(segments, amplitudes, 11, 11),
	}
	s.DDA = 2 * s.APQ3

	return s
}

// segments splits periods into contiguous stretches of admissible cycles and
// returns their durations, or amplitudes when useAmplitude is set. A stretch
// ends at a new voiced run, a period outside the configured bounds, or a jump
// between neighbours larger than the configured factors.
func (p *Perturbation) segments(periods []pitch.Period, useAmplitude bool) [][]float64 {
	var segments [][]float64
	var current []float64
	var prev *pitch.Period

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, current)
		}
		current = nil
		prev = nil
	}

	for i := range periods {
		period := &periods[i]

		if period.Duration < p.config.ShortestPeriod || period.Duration > p.config.LongestPeriod {
			flush()
			continue
		}

		if prev != nil && (prev.Run != period.Run || !p.compatible(prev, period, useAmplitude)) {
			flush()
		}

		if useAmplitude {
			current = append(current, period.Amplitude)
		} else {
			current = append(current, period.Duration)
		}
		prev = period
	}
	flush()

	return segments
}

func (p *Perturbation) compatible(a, b *pitch.Period, useAmplitude bool) bool {
	if p.config.MaxPeriodFactor > 0 && ratio(a.Duration, b.Duration) > p.config.MaxPeriodFactor {
		return false
	}
	if useAmplitude && p.config.MaxAmplitudeFactor > 0 && ratio(a.Amplitude, b.Amplitude) > p.config.MaxAmplitudeFactor {
		return false
	}
	return true
}

// ratio returns max(a,b)/min(a,b), +Inf when the smaller value is not positive
func ratio(a, b float64) float64 {
	lo, hi := min(a, b), max(a, b)
	if lo <= 0 {
		return math.Inf(1)
	}
	return hi / lo
}

func flatten(segments [][]float64) []float64 {
	var all []float64
	for _, seg := range segments {
		all = append(all, seg...)
	}
	return all
}

// perturbationRatio returns mean |x[i] - ref(i)| / mean(x), where ref is the
// previous value for width 1 and the centred width-point average otherwise.
// Terms never span two segments. NaN when fewer than minCount values exist
// or no term can be formed.
func perturbationRatio(segments [][]float64, all []float64, width, minCount int) float64 {
	if len(all) < minCount {
		return math.NaN()
	}

	meanX := common.Mean(all)
	if !(meanX > 0) {
		return math.NaN()
	}

	var terms []float64
	for _, seg := range segments {
		if width == 1 {
			for i := 1; i < len(seg); i++ {
				terms = append(terms, math.Abs(seg[i]-seg[i-1]))
			}
			continue
		}

		half := width / 2
		for i := half; i+half < len(seg); i++ {
			sum := 0.0
			for _, v := range seg[i-half : i+half+1] {
				sum += v
			}
			terms = append(terms, math.Abs(seg[i]-sum/float64(width)))
		}
	}

	if len(terms) == 0 {
		return math.NaN()
	}

	return common.Mean(terms) / meanX
}
