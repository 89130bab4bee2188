package stream

import (
	"testing"
	"time"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

// --- Constants ---

func TestFrameConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- FromBuffer ---

func TestFromBufferSameRate(t *testing.T) {
	buf := &synth.Buffer{
		SampleRate: SampleRate,
		Samples:    []float64{0.5, -0.5, 1.0, -1.0},
	}

	got := FromBuffer(buf)
	want := []int16{16383, -16383, 32767, -32767}
	if len(got) != len(want) {
		t.Fatalf("FromBuffer length = %d, want %d", len(got), len(want))
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Sample[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestFromBufferClips(t *testing.T) {
	buf := &synth.Buffer{
		SampleRate: SampleRate,
		Samples:    []float64{1.5, -1.5},
	}

	got := FromBuffer(buf)
	if got[0] != 32767 {
		t.Errorf("Overdriven sample = %d, want 32767", got[0])
	}
	if got[1] != -32768 {
		t.Errorf("Overdriven sample = %d, want -32768", got[1])
	}
}

func TestFromBufferResamples(t *testing.T) {
	// 441 frames at 44.1kHz is 10ms, which is 480 frames at 48kHz
	buf := synth.NewBuffer(44100, 441)
	for i := range buf.Samples {
		buf.Samples[i] = 0.25
	}

	got := FromBuffer(buf)
	if len(got) != 480*Channels {
		t.Fatalf("Resampled length = %d, want %d", len(got), 480*Channels)
	}

	// Linear interpolation of a constant signal stays constant
	want := int16(0.25 * 32767)
	for i, v := range got {
		if v != want {
			t.Fatalf("Resampled sample[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestFromBufferEmpty(t *testing.T) {
	if got := FromBuffer(&synth.Buffer{SampleRate: SampleRate}); got != nil {
		t.Errorf("Empty buffer should convert to nil, got %d samples", len(got))
	}
}

// --- SamplesToBytes / round-trip ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// 256 = 0x0100 -> little-endian bytes [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)

	recovered := make([]int16, len(buf)/2)
	for i := range recovered {
		recovered[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}

	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}
