package synth

import "math"

// Buffer holds rendered stereo audio as interleaved left/right float64
// pairs. The engine writes it once; post-processing mutates it in place.
type Buffer struct {
	SampleRate int
	Samples    []float64
}

// NewBuffer allocates a zeroed stereo buffer of frames samples per channel.
func NewBuffer(rate, frames int) *Buffer {
	return &Buffer{SampleRate: rate, Samples: make([]float64, 2*frames)}
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	return len(b.Samples) / 2
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample value across both channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
