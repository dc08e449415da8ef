// Package pitch tracks the fundamental frequency of voiced speech and marks
// the individual glottal periods used by the perturbation measures.
package pitch

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// Config holds pitch tracking parameters
type Config struct {
	Floor              float64 `json:"floor"`                // lowest F0 searched (Hz)
	Ceiling            float64 `json:"ceiling"`              // highest F0 searched (Hz)
	TimeStep           float64 `json:"time_step"`            // seconds between frames, 0 = 0.75/Floor
	PeriodsPerWindow   float64 `json:"periods_per_window"`   // window length in periods of Floor
	VoicingThreshold   float64 `json:"voicing_threshold"`    // minimum peak correlation for a voiced frame
	SilenceThreshold   float64 `json:"silence_threshold"`    // frame peak relative to the global peak
	OctaveCost         float64 `json:"octave_cost"`          // score bonus per octave above Floor
	OctaveJumpCost     float64 `json:"octave_jump_cost"`     // path cost per octave between voiced frames
	VoicedUnvoicedCost float64 `json:"voiced_unvoiced_cost"` // path cost of a voicing transition
	Workers            int     `json:"workers"`              // frame workers, 0 = auto
}

// subharmonicRatio is how strong a candidate at an integer multiple of f must
// be, relative to f's own correlation, for f to be dropped as a subharmonic
const subharmonicRatio = 0.8

// DefaultConfig returns the 75-600 Hz tracking range used for pitch statistics
func DefaultConfig() Config {
	return Config{
		Floor:              75,
		Ceiling:            600,
		PeriodsPerWindow:   3,
		VoicingThreshold:   0.45,
		SilenceThreshold:   0.03,
		OctaveCost:         0.01,
		OctaveJumpCost:     0.35,
		VoicedUnvoicedCost: 0.14,
	}
}

// PerturbationConfig returns the 75-500 Hz range used for period marking
func PerturbationConfig() Config {
	cfg := DefaultConfig()
	cfg.Ceiling = 500
	return cfg
}

// candidate is one F0 hypothesis of a frame. F0 0 is the unvoiced hypothesis.
type candidate struct {
	f0       float64
	strength float64 // interpolated correlation
	score    float64 // strength plus the octave bonus
}

// Frame is one point of a pitch contour
type Frame struct {
	Time     float64 `json:"time"`     // window centre in seconds
	F0       float64 `json:"f0"`       // Hz, 0 when unvoiced
	Strength float64 `json:"strength"` // peak normalized autocorrelation
}

// Voiced reports whether the frame carries a pitch estimate
func (f Frame) Voiced() bool {
	return f.F0 > 0
}

// Period is one glottal cycle between two consecutive pulse instants
type Period struct {
	Instant   float64 `json:"instant"`   // start of the cycle in seconds
	Duration  float64 `json:"duration"`  // seconds to the next instant
	Amplitude float64 `json:"amplitude"` // peak absolute sample within the cycle
	Run       int     `json:"run"`       // index of the voiced run the cycle belongs to
}

// Detector estimates F0 by short-term autocorrelation
//
// References:
//   - Boersma, P. (1993). "Accurate short-term analysis of the fundamental
//     frequency and the harmonics-to-noise ratio of a sampled sound"
//   - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
type Detector struct {
	config Config
	logger logging.Logger
}

// NewDetector creates a pitch detector
func NewDetector(config Config) *Detector {
	if config.PeriodsPerWindow <= 0 {
		config.PeriodsPerWindow = 3
	}

	return &Detector{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "pitch"}),
	}
}

func (d *Detector) timeStep() float64 {
	if d.config.TimeStep > 0 {
		return d.config.TimeStep
	}
	return 0.75 / d.config.Floor
}

// Contour tracks F0 over buf, choosing each frame's hypothesis along the best
// path through all frames. Buffers shorter than one analysis window, or with
// an invalid frequency range, yield an empty contour.
func (d *Detector) Contour(buf *common.SampleBuffer) []Frame {
	if d.config.Floor <= 0 || d.config.Ceiling <= d.config.Floor {
		d.logger.Warn("invalid pitch range", logging.Fields{
			"floor":   d.config.Floor,
			"ceiling": d.config.Ceiling,
		})
		return []Frame{}
	}

	rate := float64(buf.SampleRate())
	framer, err := common.NewFramer(buf.SampleRate(), common.FramerConfig{
		FrameLength: d.config.PeriodsPerWindow / d.config.Floor,
		HopLength:   d.timeStep(),
		Window:      windowing.TypeRectangular,
	})
	if err != nil {
		return []Frame{}
	}

	n := framer.Count(buf)
	if n == 0 {
		return []Frame{}
	}

	windowLen := framer.FrameLength()
	minLag := max(1, int(math.Floor(rate/d.config.Ceiling)))
	maxLag := min(windowLen-2, int(math.Ceil(rate/d.config.Floor)))

	ac, err := newAutocorrelator(windowLen)
	if err != nil {
		return []Frame{}
	}

	silence := d.config.SilenceThreshold * buf.PeakAmplitude()
	contour := make([]Frame, n)
	candidates := make([][]candidate, n)

	common.ParallelFor(n, d.config.Workers, func(i int) {
		frame := framer.FrameAt(buf, i)
		contour[i] = Frame{Time: frame.Time}

		peak := 0.0
		for _, s := range frame.Samples {
			peak = max(peak, math.Abs(s))
		}
		if peak == 0 || peak < silence {
			return
		}

		r := ac.compute(frame.Samples, maxLag+1)
		if r == nil {
			return
		}

		candidates[i] = d.candidates(r, minLag, maxLag, rate)
		for _, c := range candidates[i] {
			contour[i].Strength = max(contour[i].Strength, c.strength)
		}
	})

	for i, c := range d.bestPath(candidates) {
		if c.f0 > 0 {
			contour[i].F0 = c.f0
			contour[i].Strength = c.strength
		}
	}

	d.logger.Debug("pitch contour computed", logging.Fields{
		"frames": n,
		"voiced": len(VoicedF0(contour)),
	})

	return contour
}

// candidates returns the local maxima of r in [minLag, maxLag] as F0
// hypotheses, without those that are subharmonics of a comparably strong
// higher candidate
func (d *Detector) candidates(r []float64, minLag, maxLag int, rate float64) []candidate {
	var peaks []candidate
	for lag := minLag; lag <= maxLag && lag+1 < len(r); lag++ {
		if r[lag] <= 0 || r[lag] < r[lag-1] || r[lag] < r[lag+1] {
			continue
		}

		pos, height := common.ParabolicPeak(r, lag)
		height = min(height, 1)
		f0 := rate / pos

		peaks = append(peaks, candidate{
			f0:       f0,
			strength: height,
			score:    height + d.config.OctaveCost*math.Log2(f0/d.config.Floor),
		})
	}

	var kept []candidate
	for _, c := range peaks {
		if !isSubharmonic(c, peaks) {
			kept = append(kept, c)
		}
	}
	return kept
}

// isSubharmonic reports whether some higher candidate sits within a tenth of
// an octave of an integer multiple of c.f0 and is nearly as strong
func isSubharmonic(c candidate, peaks []candidate) bool {
	for _, h := range peaks {
		if h.f0 < 1.5*c.f0 {
			continue
		}
		k := math.Round(h.f0 / c.f0)
		if math.Abs(math.Log2(h.f0/(k*c.f0))) < 0.1 && h.strength >= subharmonicRatio*c.strength {
			return true
		}
	}
	return false
}

// bestPath picks one hypothesis per frame by dynamic programming. Each frame
// offers the unvoiced hypothesis, scored at the voicing threshold, and every
// candidate at or above it. Moving between voiced frames costs
// OctaveJumpCost per octave and switching voicing costs VoicedUnvoicedCost, both
// scaled to a 10 ms time step.
func (d *Detector) bestPath(frames [][]candidate) []candidate {
	if len(frames) == 0 {
		return nil
	}

	stepScale := 0.01 / d.timeStep()
	transition := func(a, b candidate) float64 {
		switch {
		case a.f0 == 0 && b.f0 == 0:
			return 0
		case a.f0 == 0 || b.f0 == 0:
			return d.config.VoicedUnvoicedCost * stepScale
		default:
			return d.config.OctaveJumpCost * stepScale * math.Abs(math.Log2(a.f0/b.f0))
		}
	}

	states := make([][]candidate, len(frames))
	for i, cands := range frames {
		states[i] = []candidate{{score: d.config.VoicingThreshold}}
		for _, c := range cands {
			if c.strength >= d.config.VoicingThreshold {
				states[i] = append(states[i], c)
			}
		}
	}

	score := make([]float64, len(states[0]))
	for j, c := range states[0] {
		score[j] = c.score
	}
	back := make([][]int, len(states))

	for i := 1; i < len(states); i++ {
		next := make([]float64, len(states[i]))
		back[i] = make([]int, len(states[i]))
		for j, cur := range states[i] {
			best := math.Inf(-1)
			for k, prev := range states[i-1] {
				if v := score[k] - transition(prev, cur); v > best {
					best = v
					back[i][j] = k
				}
			}
			next[j] = best + cur.score
		}
		score = next
	}

	path := make([]candidate, len(states))
	j := common.ArgMax(score)
	for i := len(states) - 1; i >= 0; i-- {
		path[i] = states[i][j]
		if i > 0 {
			j = back[i][j]
		}
	}

	return path
}

// Periods marks glottal cycles within each voiced run of contour. Each run
// starts at the highest sample in its first period; every next instant is
// predicted one local period ahead and snapped to the highest sample within
// 20% of a period of the prediction.
func (d *Detector) Periods(buf *common.SampleBuffer, contour []Frame) []Period {
	samples := buf.Samples()
	rate := float64(buf.SampleRate())
	halfStep := d.timeStep() / 2

	var periods []Period
	for runIdx, run := range voicedRuns(contour) {
		start := max(0, run[0].Time-halfStep)
		end := min(buf.Duration(), run[len(run)-1].Time+halfStep)
		endSample := min(len(samples), int(math.Floor(end*rate)))

		firstLen := int(math.Round(rate / interpolateF0(run, start)))
		from := int(math.Floor(start * rate))
		to := min(endSample, from+firstLen)
		if to-from < 3 {
			continue
		}

		instants := []float64{snap(samples, from, to) / rate}
		for {
			t := instants[len(instants)-1]
			periodSamples := rate / interpolateF0(run, t)
			predicted := t*rate + periodSamples
			lo := int(math.Floor(predicted - 0.2*periodSamples))
			hi := int(math.Ceil(predicted+0.2*periodSamples)) + 1
			if hi > endSample {
				break
			}

			next := snap(samples, lo, hi) / rate
			if next <= t {
				break
			}
			instants = append(instants, next)
		}

		for i := 0; i+1 < len(instants); i++ {
			a := int(math.Floor(instants[i] * rate))
			b := min(len(samples), int(math.Floor(instants[i+1]*rate)))

			amp := 0.0
			for _, s := range samples[a:max(a, b)] {
				amp = max(amp, math.Abs(s))
			}

			periods = append(periods, Period{
				Instant:   instants[i],
				Duration:  instants[i+1] - instants[i],
				Amplitude: amp,
				Run:       runIdx,
			})
		}
	}

	d.logger.Debug("glottal periods marked", logging.Fields{"periods": len(periods)})

	return periods
}

// snap returns the sub-sample position of the highest sample in [lo, hi)
func snap(samples []float64, lo, hi int) float64 {
	lo = max(0, lo)
	hi = min(len(samples), hi)

	idx := lo + common.ArgMax(samples[lo:hi])
	pos, _ := common.ParabolicPeak(samples, idx)

	return pos
}

// voicedRuns splits contour into maximal runs of consecutive voiced frames
func voicedRuns(contour []Frame) [][]Frame {
	var runs [][]Frame
	start := -1
	for i, f := range contour {
		switch {
		case f.Voiced() && start < 0:
			start = i
		case !f.Voiced() && start >= 0:
			runs = append(runs, contour[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, contour[start:])
	}
	return runs
}

// interpolateF0 linearly interpolates F0 at t within a single voiced run,
// holding the end values outside it. Across a jump of more than half an
// octave the nearer frame's value is used instead.
func interpolateF0(run []Frame, t float64) float64 {
	if t <= run[0].Time {
		return run[0].F0
	}
	for i := 1; i < len(run); i++ {
		if t <= run[i].Time {
			a, b := run[i-1], run[i]
			frac := (t - a.Time) / (b.Time - a.Time)
			if max(a.F0, b.F0) > 1.5*min(a.F0, b.F0) {
				if frac < 0.5 {
					return a.F0
				}
				return b.F0
			}
			return a.F0 + frac*(b.F0-a.F0)
		}
	}
	return run[len(run)-1].F0
}
