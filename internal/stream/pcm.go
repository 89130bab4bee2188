package stream

import (
	"encoding/binary"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

// FromBuffer converts a rendered buffer to interleaved int16 samples at the
// stream rate, linearly resampling when the render rate differs.
func FromBuffer(buf *synth.Buffer) []int16 {
	frames := buf.Frames()
	if frames == 0 || buf.SampleRate <= 0 {
		return nil
	}

	if buf.SampleRate == SampleRate {
		out := make([]int16, frames*Channels)
		for i, s := range buf.Samples {
			out[i] = clip16(s)
		}
		return out
	}

	outFrames := int(float64(frames) * float64(SampleRate) / float64(buf.SampleRate))
	ratio := float64(buf.SampleRate) / float64(SampleRate)
	out := make([]int16, outFrames*Channels)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		k := j + 1
		if j >= frames {
			j = frames - 1
		}
		if k >= frames {
			k = frames - 1
		}
		for c := 0; c < Channels; c++ {
			a := buf.Samples[Channels*j+c]
			b := buf.Samples[Channels*k+c]
			out[Channels*i+c] = clip16(a + (b-a)*frac)
		}
	}
	return out
}

func clip16(s float64) int16 {
	v := s * 32767
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
