package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// BalanceConfig holds the low/high spectral balance parameters
type BalanceConfig struct {
	FrameLength float64 `json:"frame_length"` // seconds
	HopLength   float64 `json:"hop_length"`   // seconds
	SplitHz     float64 `json:"split_hz"`     // bins at or below are "low"
	Epsilon     float64 `json:"epsilon"`      // added to each band energy
	Symmetric   bool    `json:"symmetric"`    // symmetric Hamming window, periodic otherwise
	Workers     int     `json:"workers"`      // frame workers, 0 = auto
}

// DefaultBalanceConfig returns 50 ms frames, 25 ms hop and a 4 kHz split
func DefaultBalanceConfig() BalanceConfig {
	return BalanceConfig{
		FrameLength: 0.05,
		HopLength:   0.025,
		SplitHz:     4000,
		Epsilon:     1e-12,
	}
}

// BalanceResult is the per-frame L/H ratio series and its summary
type BalanceResult struct {
	Series []float64 `json:"series"` // dB per frame
	Mean   float64   `json:"mean"`   // NaN for an empty series
	SD     float64   `json:"sd"`     // sample SD, 0 when fewer than two frames
}

// BalanceAnalyzer measures the low-to-high frequency energy ratio in dB
type BalanceAnalyzer struct {
	config BalanceConfig
	logger logging.Logger
}

// NewBalanceAnalyzer creates an analyzer with the given config
func NewBalanceAnalyzer(config BalanceConfig) *BalanceAnalyzer {
	return &BalanceAnalyzer{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "lh_ratio"}),
	}
}

// Analyze computes 10*log10(low/high) for every complete frame of buf
func (ba *BalanceAnalyzer) Analyze(buf *common.SampleBuffer) (*BalanceResult, error) {
	framer, err := common.NewFramer(buf.SampleRate(), common.FramerConfig{
		FrameLength: ba.config.FrameLength,
		HopLength:   ba.config.HopLength,
		Window:      windowing.TypeHamming,
		Symmetric:   ba.config.Symmetric,
	})
	if err != nil {
		return nil, err
	}

	stft, err := NewSTFT(ba.config.Workers).Compute(buf, framer)
	if err != nil {
		return nil, err
	}

	series := make([]float64, stft.TimeFrames)
	for i, power := range stft.Power {
		series[i] = ba.ratio(power, stft.Frequencies)
	}

	ba.logger.Debug("spectral balance computed", logging.Fields{
		"frames":      len(series),
		"window_size": stft.WindowSize,
	})

	return &BalanceResult{
		Series: series,
		Mean:   common.Mean(series),
		SD:     common.StandardDeviation(series),
	}, nil
}

func (ba *BalanceAnalyzer) ratio(power, freqs []float64) float64 {
	low, high := 0.0, 0.0
	for k, p := range power {
		if freqs[k] <= ba.config.SplitHz {
			low += p
		} else {
			high += p
		}
	}

	return 10 * math.Log10((low+ba.config.Epsilon)/(high+ba.config.Epsilon))
}
