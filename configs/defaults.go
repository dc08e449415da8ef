package configs

import (
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-voice/predict"
)

// SetDefaults sets default configuration values for all components. Values
// already present in v are left alone.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// Analysis defaults
	v.SetDefault("analysis.profile", ProfileVowel)
	v.SetDefault("analysis.min_duration", 0.0)
	v.SetDefault("analysis.include_sampling", true)
	v.SetDefault("analysis.frame_workers", 0)
	v.SetDefault("analysis.file_workers", 4)
	v.SetDefault("analysis.file_timeout", "0s")

	// Stage overrides, 0 keeps the profile default
	v.SetDefault("pitch.floor", 0.0)
	v.SetDefault("pitch.ceiling", 0.0)
	v.SetDefault("pitch.perturbation_ceiling", 0.0)
	v.SetDefault("pitch.voicing_threshold", 0.0)
	v.SetDefault("pitch.silence_threshold", 0.0)
	v.SetDefault("pitch.octave_cost", 0.0)
	v.SetDefault("pitch.octave_jump_cost", 0.0)
	v.SetDefault("pitch.voiced_unvoiced_cost", 0.0)
	v.SetDefault("cpps.target_sample_rate", 0)
	v.SetDefault("cpps.fmin", 0.0)
	v.SetDefault("cpps.fmax", 0.0)
	v.SetDefault("balance.split_hz", 0.0)

	// Decoder defaults
	v.SetDefault("decoder.target_sample_rate", 0)
	v.SetDefault("decoder.max_duration", "0s")
	v.SetDefault("decoder.ffmpeg_path", "ffmpeg")
	v.SetDefault("decoder.ffprobe_path", "ffprobe")
	v.SetDefault("decoder.timeout", "30s")

	// Predictor defaults
	p := predict.DefaultConfig()
	v.SetDefault("predict.endpoint", p.Endpoint)
	v.SetDefault("predict.predict_path", p.PredictPath)
	v.SetDefault("predict.health_path", p.HealthPath)
	v.SetDefault("predict.sample_rate", p.SampleRate)
	v.SetDefault("predict.pad_seconds", p.PadSeconds)
	v.SetDefault("predict.segment_start", p.SegmentStart)
	v.SetDefault("predict.segment_end", p.SegmentEnd)
	v.SetDefault("predict.bit_depth", p.BitDepth)
	v.SetDefault("predict.timeout", p.Timeout.String())

	// Output defaults
	v.SetDefault("output.shape", "nested")
	v.SetDefault("output.format", "json")
}

// Default returns the configuration produced by SetDefaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	config, err := Load(v)
	if err != nil {
		panic(err)
	}
	return config
}
