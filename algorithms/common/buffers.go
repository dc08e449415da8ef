// Package common holds the signal containers, framing, and numeric helpers
// shared by every analysis stage.
package common

import (
	"errors"
	"fmt"
	"math"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

var (
	// ErrInvalidSampleRate is returned for a non-positive sample rate
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrNonFiniteSample is returned when the decoded signal contains NaN or Inf
	ErrNonFiniteSample = errors.New("signal contains non-finite samples")

	// ErrInvalidChannels is returned when interleaved data does not divide into channels
	ErrInvalidChannels = errors.New("invalid channel layout")
)

// SampleBuffer owns a mono floating-point PCM signal and its sample rate.
// It is immutable: every transforming method returns a new buffer.
type SampleBuffer struct {
	samples    []float64
	sampleRate int
}

// NewSampleBuffer validates and copies samples into a new buffer
func NewSampleBuffer(samples []float64, sampleRate int) (*SampleBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: sample %d is %v", ErrNonFiniteSample, i, s)
		}
	}

	owned := make([]float64, len(samples))
	copy(owned, samples)

	return &SampleBuffer{samples: owned, sampleRate: sampleRate}, nil
}

// FromInterleaved averages interleaved multi-channel frames down to mono
func FromInterleaved(data []float64, channels, sampleRate int) (*SampleBuffer, error) {
	if channels <= 0 || len(data)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples across %d channels", ErrInvalidChannels, len(data), channels)
	}

	if channels == 1 {
		return NewSampleBuffer(data, sampleRate)
	}

	frames := len(data) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += data[i*channels+ch]
		}
		mono[i] = sum / float64(channels)
	}

	return NewSampleBuffer(mono, sampleRate)
}

// Samples returns the underlying samples. Callers must not modify the slice.
func (b *SampleBuffer) Samples() []float64 {
	return b.samples
}

// SampleRate returns the sample rate in Hz
func (b *SampleBuffer) SampleRate() int {
	return b.sampleRate
}

// Len returns the number of samples
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}

// Duration returns the signal length in seconds
func (b *SampleBuffer) Duration() float64 {
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// DurationTime returns the signal length as a time.Duration
func (b *SampleBuffer) DurationTime() time.Duration {
	return time.Duration(b.Duration() * float64(time.Second))
}

// SamplesFor converts seconds to a sample count at this buffer's rate
func (b *SampleBuffer) SamplesFor(seconds float64) int {
	return SecondsToSamples(seconds, b.sampleRate)
}

// SecondsToSamples rounds seconds*sampleRate to the nearest sample count
func SecondsToSamples(seconds float64, sampleRate int) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}

// PeakAmplitude returns the largest absolute sample value
func (b *SampleBuffer) PeakAmplitude() float64 {
	peak := 0.0
	for _, s := range b.samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// IsSilent reports whether the buffer is empty or all zeros
func (b *SampleBuffer) IsSilent() bool {
	return b.PeakAmplitude() == 0
}

// PadTo zero-extends the buffer on the right to the given duration. Buffers
// that are already long enough are returned unchanged; content is never
// truncated.
func (b *SampleBuffer) PadTo(seconds float64) *SampleBuffer {
	target := b.SamplesFor(seconds)
	if target <= len(b.samples) {
		return b
	}

	padded := make([]float64, target)
	copy(padded, b.samples)

	return &SampleBuffer{samples: padded, sampleRate: b.sampleRate}
}

// Trim returns the samples in [from, to) seconds, clamped to the buffer.
// A negative to means "until the end".
func (b *SampleBuffer) Trim(from, to float64) *SampleBuffer {
	start := b.SamplesFor(from)
	end := len(b.samples)
	if to >= 0 {
		end = min(b.SamplesFor(to), len(b.samples))
	}
	start = min(start, end)

	trimmed := make([]float64, end-start)
	copy(trimmed, b.samples[start:end])

	return &SampleBuffer{samples: trimmed, sampleRate: b.sampleRate}
}

// Resample converts the buffer to targetRate. Buffers already at the target
// rate are returned unchanged.
func (b *SampleBuffer) Resample(targetRate int) (*SampleBuffer, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, targetRate)
	}

	if targetRate == b.sampleRate || len(b.samples) == 0 {
		return &SampleBuffer{samples: b.samples, sampleRate: targetRate}, nil
	}

	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(b.sampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	output, err := resampler.Process(b.samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	return &SampleBuffer{samples: output, sampleRate: targetRate}, nil
}
