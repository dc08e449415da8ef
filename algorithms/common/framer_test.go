package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
)

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestFramerGeometry(t *testing.T) {
	buf, err := NewSampleBuffer(ones(1000), 1000)
	require.NoError(t, err)

	framer, err := NewFramer(1000, FramerConfig{
		FrameLength: 0.1,
		HopLength:   0.05,
		Window:      windowing.TypeRectangular,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, framer.FrameLength())
	assert.Equal(t, 50, framer.HopLength())
	assert.Equal(t, 19, framer.Count(buf))

	var frames []Frame
	for f := range framer.Frames(buf) {
		frames = append(frames, f)
	}
	require.Len(t, frames, 19)
	assert.Equal(t, 50, frames[1].Start)
	assert.InDelta(t, 0.1, frames[1].Time, 1e-12)

	// restartable
	again := 0
	for range framer.Frames(buf) {
		again++
	}
	assert.Equal(t, 19, again)
}

func TestFramerAppliesWindowToCopy(t *testing.T) {
	buf, err := NewSampleBuffer(ones(64), 64)
	require.NoError(t, err)

	framer, err := NewFramer(64, FramerConfig{
		FrameLength: 0.5,
		HopLength:   0.25,
		Window:      windowing.TypeHann,
		Symmetric:   true,
	})
	require.NoError(t, err)

	frame := framer.FrameAt(buf, 0)
	assert.InDelta(t, 0, frame.Samples[0], 1e-12)
	assert.InDelta(t, 0, frame.Samples[31], 1e-12)
	assert.Less(t, frame.Samples[0], frame.Samples[16])

	// source untouched
	for _, s := range buf.Samples() {
		assert.Equal(t, 1.0, s)
	}
}

func TestFramerShortInput(t *testing.T) {
	buf, err := NewSampleBuffer(ones(10), 1000)
	require.NoError(t, err)

	framer, err := NewFramer(1000, FramerConfig{FrameLength: 0.02, HopLength: 0.01, Window: windowing.TypeHamming})
	require.NoError(t, err)
	assert.Zero(t, framer.Count(buf))

	zero, err := NewFramer(1000, FramerConfig{FrameLength: 0, HopLength: 0.01, Window: windowing.TypeHamming})
	require.NoError(t, err)
	assert.Zero(t, zero.Count(buf))

	_, err = NewFramer(0, FramerConfig{FrameLength: 0.02, HopLength: 0.01})
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}
