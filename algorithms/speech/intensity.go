package speech

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
)

// referencePressure is the 20 micropascal auditory threshold
const referencePressure = 2e-5

// IntensityConfig holds intensity contour parameters
type IntensityConfig struct {
	MinPitch     float64 `json:"min_pitch"`     // Hz, window is 3.2/MinPitch seconds
	TimeStep     float64 `json:"time_step"`     // seconds, 0 = 0.8/MinPitch
	SubtractMean bool    `json:"subtract_mean"` // remove the DC offset of each window
}

// DefaultIntensityConfig returns a 100 Hz minimum pitch and 25 ms step
func DefaultIntensityConfig() IntensityConfig {
	return IntensityConfig{
		MinPitch:     100,
		TimeStep:     0.025,
		SubtractMean: true,
	}
}

// IntensityPoint is one sample of the intensity contour
type IntensityPoint struct {
	Time float64 `json:"time"` // seconds
	DB   float64 `json:"db"`   // dB SPL, 0 when not finite
}

// Intensity computes a Hann-weighted mean-square energy contour
type Intensity struct {
	config IntensityConfig
}

// NewIntensity creates an intensity analyzer
func NewIntensity(config IntensityConfig) *Intensity {
	return &Intensity{config: config}
}

// Analyze returns the intensity contour of buf. Buffers shorter than one
// window yield an empty contour.
func (in *Intensity) Analyze(buf *common.SampleBuffer) ([]IntensityPoint, error) {
	if in.config.MinPitch <= 0 {
		return []IntensityPoint{}, nil
	}

	step := in.config.TimeStep
	if step <= 0 {
		step = 0.8 / in.config.MinPitch
	}

	framer, err := common.NewFramer(buf.SampleRate(), common.FramerConfig{
		FrameLength: 3.2 / in.config.MinPitch,
		HopLength:   step,
		Window:      windowing.TypeRectangular,
	})
	if err != nil {
		return nil, err
	}

	n := framer.Count(buf)
	if n == 0 {
		return []IntensityPoint{}, nil
	}

	weights, err := windowing.New(windowing.TypeHann, framer.FrameLength(), true)
	if err != nil {
		return nil, err
	}
	w := weights.GetCoefficients()
	weightSum := 0.0
	for _, v := range w {
		weightSum += v
	}

	points := make([]IntensityPoint, 0, n)
	for frame := range framer.Frames(buf) {
		x := frame.Samples
		if in.config.SubtractMean {
			mean := common.Mean(x)
			for i := range x {
				x[i] -= mean
			}
		}

		energy := 0.0
		for i, v := range x {
			energy += w[i] * v * v
		}

		db := 10 * math.Log10(energy/weightSum/(referencePressure*referencePressure))
		if !common.IsFinite(db) {
			db = 0
		}

		points = append(points, IntensityPoint{Time: frame.Time, DB: db})
	}

	return points, nil
}
