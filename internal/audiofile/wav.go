package audiofile

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

// pcmScale returns the full-scale multiplier for a bit depth.
func pcmScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32767, nil
	case 24:
		return 8388607, nil
	case 32:
		return 2147483647, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}
}

// Quantize converts float64 samples to integer PCM at the given bit depth.
// Samples outside [-1, 1] are clamped to full scale.
func Quantize(buf *synth.Buffer, bitDepth int) ([]int, error) {
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int(s * scale)
	}
	return out, nil
}

// WriteWAV encodes a stereo buffer as a PCM WAV file at the given bit depth.
func WriteWAV(path string, buf *synth.Buffer, bitDepth int) error {
	data, err := Quantize(buf, bitDepth)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, bitDepth, 2, 1)
	pcm := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
