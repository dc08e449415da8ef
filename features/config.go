package features

import (
	"time"

	"github.com/RyanBlaney/sonido-voice/algorithms/cepstral"
	"github.com/RyanBlaney/sonido-voice/algorithms/spectral"
	"github.com/RyanBlaney/sonido-voice/algorithms/speech"
)

// Config holds the per-stage analysis parameters and the worker budget
type Config struct {
	VoiceQuality speech.VoiceQualityConfig `json:"voice_quality"`
	CPPS         cepstral.Config           `json:"cpps"`
	Balance      spectral.BalanceConfig    `json:"balance"`
	Intensity    speech.IntensityConfig    `json:"intensity"`

	// MinDuration zero-pads shorter buffers before analysis, 0 disables
	MinDuration float64 `json:"min_duration"`

	// IncludeSampling attaches the intensity/pitch time series to reports
	IncludeSampling bool `json:"include_sampling"`

	FrameWorkers int           `json:"frame_workers"` // per-stage frame pool, 0 = auto
	FileWorkers  int           `json:"file_workers"`  // concurrent files, 0 = unlimited
	FileTimeout  time.Duration `json:"file_timeout"`  // per-file budget, 0 = none
}

// DefaultConfig returns the standard voice analysis configuration
func DefaultConfig() *Config {
	return &Config{
		VoiceQuality:    speech.DefaultVoiceQualityConfig(),
		CPPS:            cepstral.DefaultConfig(),
		Balance:         spectral.DefaultBalanceConfig(),
		Intensity:       speech.DefaultIntensityConfig(),
		IncludeSampling: true,
		FileWorkers:     4,
	}
}

// SustainedVowelConfig returns the configuration for sustained "ah"
// recordings: a wider CPPS search band, a symmetric L/H window and no time
// series
func SustainedVowelConfig() *Config {
	cfg := DefaultConfig()
	cfg.CPPS.FMin = 75
	cfg.CPPS.FMax = 500
	cfg.Balance.Symmetric = true
	cfg.IncludeSampling = false
	return cfg
}

// withWorkers copies FrameWorkers into every frame-parallel stage
func (c *Config) withWorkers() *Config {
	cfg := *c
	cfg.VoiceQuality.Pitch.Workers = c.FrameWorkers
	cfg.VoiceQuality.Perturbation.Workers = c.FrameWorkers
	cfg.CPPS.Workers = c.FrameWorkers
	cfg.Balance.Workers = c.FrameWorkers
	return &cfg
}
