package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
	"github.com/RyanBlaney/sonido-voice/features"
	"github.com/RyanBlaney/sonido-voice/predict"
	"github.com/RyanBlaney/sonido-voice/transcode"
)

// EnvPrefix is prepended to every environment override, e.g.
// SONIDO_VOICE_PITCH_FLOOR=60
const EnvPrefix = "SONIDO_VOICE"

// Analysis profiles
const (
	ProfileSpeech = "speech"
	ProfileVowel  = "vowel"
)

// Config represents the application configuration
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Analysis AnalysisConfig `mapstructure:"analysis"`
	Pitch    PitchConfig    `mapstructure:"pitch"`
	CPPS     CPPSConfig     `mapstructure:"cpps"`
	Balance  BalanceConfig  `mapstructure:"balance"`
	Decoder  DecoderConfig  `mapstructure:"decoder"`
	Predict  predict.Config `mapstructure:"predict"`
	Output   OutputConfig   `mapstructure:"output"`
}

// AnalysisConfig selects the base profile and the worker budget
type AnalysisConfig struct {
	Profile         string        `mapstructure:"profile"` // speech or vowel
	MinDuration     float64       `mapstructure:"min_duration"`
	IncludeSampling bool          `mapstructure:"include_sampling"`
	FrameWorkers    int           `mapstructure:"frame_workers"`
	FileWorkers     int           `mapstructure:"file_workers"`
	FileTimeout     time.Duration `mapstructure:"file_timeout"`
}

// PitchConfig contains pitch tracking overrides, 0 keeps the default
type PitchConfig struct {
	Floor               float64 `mapstructure:"floor"`
	Ceiling             float64 `mapstructure:"ceiling"`
	PerturbationCeiling float64 `mapstructure:"perturbation_ceiling"`
	VoicingThreshold    float64 `mapstructure:"voicing_threshold"`
	SilenceThreshold    float64 `mapstructure:"silence_threshold"`
	OctaveCost          float64 `mapstructure:"octave_cost"`
	OctaveJumpCost      float64 `mapstructure:"octave_jump_cost"`
	VoicedUnvoicedCost  float64 `mapstructure:"voiced_unvoiced_cost"`
}

// CPPSConfig contains cepstral peak prominence overrides
type CPPSConfig struct {
	TargetSampleRate int     `mapstructure:"target_sample_rate"`
	FMin             float64 `mapstructure:"fmin"`
	FMax             float64 `mapstructure:"fmax"`
}

// BalanceConfig contains low/high band balance overrides
type BalanceConfig struct {
	SplitHz float64 `mapstructure:"split_hz"`
}

// DecoderConfig contains audio decoding settings
type DecoderConfig struct {
	TargetSampleRate int           `mapstructure:"target_sample_rate"`
	MaxDuration      time.Duration `mapstructure:"max_duration"`
	FFmpegPath       string        `mapstructure:"ffmpeg_path"`
	FFprobePath      string        `mapstructure:"ffprobe_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Shape  string `mapstructure:"shape"`  // nested or flat
	Format string `mapstructure:"format"` // json or yaml
}

// ConfigureEnv enables SONIDO_VOICE_* environment overrides on v
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch config.Analysis.Profile {
	case ProfileSpeech, ProfileVowel:
	default:
		return fmt.Errorf("unknown analysis profile %q", config.Analysis.Profile)
	}

	if config.Pitch.Floor < 0 || config.Pitch.Ceiling < 0 || config.Pitch.PerturbationCeiling < 0 {
		return fmt.Errorf("pitch bounds cannot be negative")
	}

	if config.Pitch.Floor > 0 && config.Pitch.Ceiling > 0 && config.Pitch.Ceiling <= config.Pitch.Floor {
		return fmt.Errorf("pitch ceiling must exceed the floor")
	}

	if config.CPPS.TargetSampleRate < 0 {
		return fmt.Errorf("cpps target sample rate cannot be negative")
	}

	if config.Decoder.TargetSampleRate < 0 {
		return fmt.Errorf("decoder target sample rate cannot be negative")
	}

	if config.Analysis.FileWorkers < 0 || config.Analysis.FrameWorkers < 0 {
		return fmt.Errorf("worker counts cannot be negative")
	}

	switch config.Output.Shape {
	case "nested", "flat":
	default:
		return fmt.Errorf("output shape must be nested or flat, got %q", config.Output.Shape)
	}

	switch config.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("output format must be json or yaml, got %q", config.Output.Format)
	}

	return nil
}

// ToFeatures builds the analysis configuration for the selected profile.
// Zero-valued overrides keep the profile default.
func (c *Config) ToFeatures() *features.Config {
	cfg := features.DefaultConfig()
	if c.Analysis.Profile == ProfileVowel {
		cfg = features.SustainedVowelConfig()
	}

	cfg.MinDuration = c.Analysis.MinDuration
	cfg.IncludeSampling = cfg.IncludeSampling && c.Analysis.IncludeSampling
	cfg.FrameWorkers = c.Analysis.FrameWorkers
	cfg.FileWorkers = c.Analysis.FileWorkers
	cfg.FileTimeout = c.Analysis.FileTimeout

	c.Pitch.apply(&cfg.VoiceQuality.Pitch, c.Pitch.Ceiling)
	c.Pitch.apply(&cfg.VoiceQuality.Perturbation, c.Pitch.PerturbationCeiling)

	if c.CPPS.TargetSampleRate > 0 {
		cfg.CPPS.TargetSampleRate = c.CPPS.TargetSampleRate
	}
	override(&cfg.CPPS.FMin, c.CPPS.FMin)
	override(&cfg.CPPS.FMax, c.CPPS.FMax)
	override(&cfg.Balance.SplitHz, c.Balance.SplitHz)

	return cfg
}

func (p PitchConfig) apply(dst *pitch.Config, ceiling float64) {
	override(&dst.Floor, p.Floor)
	override(&dst.Ceiling, ceiling)
	override(&dst.VoicingThreshold, p.VoicingThreshold)
	override(&dst.SilenceThreshold, p.SilenceThreshold)
	override(&dst.OctaveCost, p.OctaveCost)
	override(&dst.OctaveJumpCost, p.OctaveJumpCost)
	override(&dst.VoicedUnvoicedCost, p.VoicedUnvoicedCost)
}

func override(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// ToDecoder returns the decoder settings
func (c *Config) ToDecoder() *transcode.DecoderConfig {
	return &transcode.DecoderConfig{
		TargetSampleRate: c.Decoder.TargetSampleRate,
		MaxDuration:      c.Decoder.MaxDuration,
		FFmpegPath:       c.Decoder.FFmpegPath,
		FFprobePath:      c.Decoder.FFprobePath,
		Timeout:          c.Decoder.Timeout,
	}
}
