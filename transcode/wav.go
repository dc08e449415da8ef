package transcode

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// ErrInvalidWAV is returned when the input is not a PCM WAV stream
var ErrInvalidWAV = errors.New("invalid WAV file")

// DecodeWAV reads a PCM WAV stream into a mono buffer. Integer samples are
// scaled to [-1, 1) by their source bit depth and channels are averaged.
func DecodeWAV(r io.ReadSeeker) (*common.SampleBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("%w: missing format chunk", ErrInvalidWAV)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 {
		return nil, fmt.Errorf("%w: unknown bit depth", ErrInvalidWAV)
	}

	scale := math.Exp2(float64(bitDepth - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return common.FromInterleaved(samples, buf.Format.NumChannels, buf.Format.SampleRate)
}

// EncodeWAV writes buf as mono PCM WAV at the given bit depth, clipping
// samples to [-1, 1]
func EncodeWAV(w io.WriteSeeker, buf *common.SampleBuffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	scale := math.Exp2(float64(bitDepth-1)) - 1
	data := make([]int, buf.Len())
	for i, s := range buf.Samples() {
		data[i] = int(math.Round(common.Clamp(s, -1, 1) * scale))
	}

	encoder := wav.NewEncoder(w, buf.SampleRate(), bitDepth, 1, 1)

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate(),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(intBuf); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}

	return encoder.Close()
}
