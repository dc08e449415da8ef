package common

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSampleBufferValidation(t *testing.T) {
	_, err := NewSampleBuffer([]float64{0, 1}, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = NewSampleBuffer([]float64{0, math.NaN()}, 16000)
	assert.ErrorIs(t, err, ErrNonFiniteSample)

	_, err = NewSampleBuffer([]float64{math.Inf(-1)}, 16000)
	assert.ErrorIs(t, err, ErrNonFiniteSample)
}

func TestNewSampleBufferCopiesInput(t *testing.T) {
	src := []float64{0.1, 0.2, 0.3}
	buf, err := NewSampleBuffer(src, 8000)
	require.NoError(t, err)

	src[0] = 9
	assert.Equal(t, 0.1, buf.Samples()[0])
	assert.Equal(t, 3, buf.Len())
	assert.InDelta(t, 3.0/8000, buf.Duration(), 1e-12)
}

func TestFromInterleavedAveragesChannels(t *testing.T) {
	buf, err := FromInterleaved([]float64{1, 0, 0.5, 0.5, -1, 1}, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0}, buf.Samples())

	_, err = FromInterleaved([]float64{1, 2, 3}, 2, 100)
	assert.ErrorIs(t, err, ErrInvalidChannels)

	_, err = FromInterleaved([]float64{1}, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidChannels)
}

func TestPadTo(t *testing.T) {
	buf, err := NewSampleBuffer([]float64{1, 2, 3}, 10)
	require.NoError(t, err)

	padded := buf.PadTo(1)
	require.Equal(t, 10, padded.Len())
	assert.Equal(t, []float64{1, 2, 3}, padded.Samples()[:3])
	for _, s := range padded.Samples()[3:] {
		assert.Zero(t, s)
	}

	// never truncates
	assert.Same(t, buf, buf.PadTo(0.1))
	assert.Equal(t, 3, buf.Len())
}

func TestTrim(t *testing.T) {
	samples := make([]float64, 30)
	for i := range samples {
		samples[i] = float64(i)
	}
	buf, err := NewSampleBuffer(samples, 10)
	require.NoError(t, err)

	middle := buf.Trim(1, 2)
	assert.Equal(t, samples[10:20], middle.Samples())

	tail := buf.Trim(2.5, -1)
	assert.Equal(t, samples[25:], tail.Samples())

	beyond := buf.Trim(5, 10)
	assert.Zero(t, beyond.Len())
	assert.Equal(t, 10, beyond.SampleRate())
}

func TestPeakAndSilence(t *testing.T) {
	buf, err := NewSampleBuffer([]float64{0.2, -0.7, 0.5}, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.7, buf.PeakAmplitude())
	assert.False(t, buf.IsSilent())

	silent, err := NewSampleBuffer(make([]float64, 5), 10)
	require.NoError(t, err)
	assert.True(t, silent.IsSilent())
}

func TestResample(t *testing.T) {
	buf, err := NewSampleBuffer([]float64{1, 2, 3}, 16000)
	require.NoError(t, err)

	same, err := buf.Resample(16000)
	require.NoError(t, err)
	assert.Equal(t, buf.Samples(), same.Samples())

	_, err = buf.Resample(0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestSecondsToSamples(t *testing.T) {
	assert.Equal(t, 160, SecondsToSamples(0.01, 16000))
	assert.Equal(t, 0, SecondsToSamples(-1, 16000))
	assert.Equal(t, 0, SecondsToSamples(1, 0))
}

func TestParallelForVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		var hits [100]int32
		ParallelFor(len(hits), workers, func(i int) {
			atomic.AddInt32(&hits[i], 1)
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "workers=%d index=%d", workers, i)
		}
	}

	called := false
	ParallelFor(0, 4, func(int) { called = true })
	assert.False(t, called)
}
