package common

import (
	"fmt"
	"iter"

	"github.com/RyanBlaney/sonido-voice/algorithms/windowing"
)

// Frame is one windowed analysis slice of a SampleBuffer
type Frame struct {
	Index   int       `json:"index"`
	Start   int       `json:"start"` // Offset of the first sample in the source buffer
	Samples []float64 `json:"-"`     // Windowed copy, never aliases the buffer
	Time    float64   `json:"time"`  // Centre of the frame in seconds
}

// FramerConfig describes frame geometry in seconds
type FramerConfig struct {
	FrameLength float64        `json:"frame_length"` // seconds
	HopLength   float64        `json:"hop_length"`   // seconds
	Window      windowing.Type `json:"window"`
	Symmetric   bool           `json:"symmetric"`
}

// Framer slices buffers into overlapping fixed-length windowed frames
type Framer struct {
	sampleRate int
	frameLen   int
	hopLen     int
	window     windowing.Window
}

// NewFramer builds a framer for buffers at sampleRate. Frame and hop lengths
// are rounded to whole samples. A framer whose frame or hop rounds to zero is
// valid and produces no frames.
func NewFramer(sampleRate int, cfg FramerConfig) (*Framer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	f := &Framer{
		sampleRate: sampleRate,
		frameLen:   SecondsToSamples(cfg.FrameLength, sampleRate),
		hopLen:     SecondsToSamples(cfg.HopLength, sampleRate),
	}

	if f.frameLen > 0 {
		window, err := windowing.New(cfg.Window, f.frameLen, cfg.Symmetric)
		if err != nil {
			return nil, err
		}
		f.window = window
	}

	return f, nil
}

// FrameLength returns the frame length in samples
func (f *Framer) FrameLength() int {
	return f.frameLen
}

// HopLength returns the hop length in samples
func (f *Framer) HopLength() int {
	return f.hopLen
}

// Count returns how many frames Frames would yield for buf
func (f *Framer) Count(buf *SampleBuffer) int {
	if f.frameLen <= 0 || f.hopLen <= 0 || buf.Len() < f.frameLen {
		return 0
	}
	return (buf.Len()-f.frameLen)/f.hopLen + 1
}

// FrameAt returns frame i. It is safe for concurrent use since each call
// allocates its own windowed copy.
func (f *Framer) FrameAt(buf *SampleBuffer, i int) Frame {
	start := i * f.hopLen
	samples := f.window.Apply(buf.samples[start : start+f.frameLen])

	return Frame{
		Index:   i,
		Start:   start,
		Samples: samples,
		Time:    (float64(start) + float64(f.frameLen)/2) / float64(f.sampleRate),
	}
}

// Frames returns a lazy, restartable sequence over every complete frame of buf
func (f *Framer) Frames(buf *SampleBuffer) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		n := f.Count(buf)
		for i := range n {
			if !yield(f.FrameAt(buf, i)) {
				return
			}
		}
	}
}
