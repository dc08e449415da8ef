package transcode

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

func sineBuffer(t *testing.T, freq float64, rate int, seconds float64) *common.SampleBuffer {
	t.Helper()
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	buf, err := common.NewSampleBuffer(samples, rate)
	require.NoError(t, err)
	return buf
}

func writeWAV(t *testing.T, buf *common.SampleBuffer, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, buf, bitDepth))
	require.NoError(t, f.Close())
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	original := sineBuffer(t, 220, 16000, 0.25)
	path := writeWAV(t, original, 16)

	decoder := NewDecoder(nil)
	decoded, err := decoder.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 16000, decoded.SampleRate())
	require.Equal(t, original.Len(), decoded.Len())
	for i, s := range original.Samples() {
		assert.InDelta(t, s, decoded.Samples()[i], 1e-4, "sample %d", i)
	}
}

func TestDecodeBytesWAV(t *testing.T) {
	original := sineBuffer(t, 300, 8000, 0.1)
	path := writeWAV(t, original, 24)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, isRIFFWave(data))

	decoded, err := NewDecoder(nil).DecodeBytes(context.Background(), data, "tone.wav")
	require.NoError(t, err)
	assert.Equal(t, original.Len(), decoded.Len())
	assert.InDelta(t, 0.5, decoded.PeakAmplitude(), 1e-3)
}

func TestDecodeMaxDuration(t *testing.T) {
	path := writeWAV(t, sineBuffer(t, 220, 16000, 1), 16)

	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 250 * time.Millisecond
	decoded, err := NewDecoder(cfg).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4000, decoded.Len())
}

func TestDecodeWAVInvalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a wav file")))
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestDecodeBytesEmpty(t *testing.T) {
	_, err := NewDecoder(nil).DecodeBytes(context.Background(), nil, "empty")
	assert.Error(t, err)
}

func TestEncodeWAVRejectsBitDepth(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer f.Close()

	assert.Error(t, EncodeWAV(f, sineBuffer(t, 100, 8000, 0.01), 12))
}

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3",` +
		`"sample_rate":"44100","channels":2,"duration":"3.5","bit_rate":"128000"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 44100, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "mp3", meta.Codec)
	assert.InDelta(t, 3.5, meta.Duration, 1e-12)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","sample_rate":"1","channels":1}]}`))
	assert.Error(t, err)
}

func TestBytesToFloat64(t *testing.T) {
	var raw bytes.Buffer
	for _, v := range []float64{0.25, -1} {
		bits := math.Float64bits(v)
		for i := range 8 {
			raw.WriteByte(byte(bits >> (8 * i)))
		}
	}
	raw.WriteByte(0xff) // trailing partial sample is dropped

	assert.Equal(t, []float64{0.25, -1}, bytesToFloat64(raw.Bytes()))
	assert.Nil(t, bytesToFloat64([]byte{1, 2}))
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 2 * time.Second
	args := NewDecoder(cfg).buildFFmpegArgs(22050)

	assert.Equal(t, []string{"-f", "f64le", "-ac", "1", "-ar", "22050", "-t", "2.00", "-v", "error"}, args)
}
