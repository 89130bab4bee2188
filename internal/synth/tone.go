package synth

import (
	"fmt"
	"math"
)

// ToneGenerator produces the mono waveform for a single sound event.
// Implementations own their envelope and loudness model.
type ToneGenerator interface {
	RenderTone(frequency, duration float64, velocity, sampleRate int) ([]float64, error)
}

// HarmonicTone is the built-in generator: a sine fundamental with two
// attenuated harmonics under an ADSR envelope, scaled by velocity and
// peak-normalized so a single note never clips on its own.
type HarmonicTone struct{}

const tonePeakCeiling = 0.8

func (HarmonicTone) RenderTone(frequency, duration float64, velocity, sampleRate int) ([]float64, error) {
	n := int(duration * float64(sampleRate))
	if n <= 0 {
		return nil, fmt.Errorf("tone span empty: duration %.4fs at %d Hz sample rate", duration, sampleRate)
	}
	env := adsrEnvelope(n, sampleRate, duration)
	amp := float64(velocity) / 127.0

	wave := make([]float64, n)
	for i := range wave {
		t := float64(i) / float64(sampleRate)
		s := math.Sin(2*math.Pi*frequency*t) +
			0.3*math.Sin(2*math.Pi*frequency*2*t) +
			0.1*math.Sin(2*math.Pi*frequency*3*t)
		wave[i] = s * env[i] * amp
	}

	peak := 0.0
	for _, s := range wave {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak > tonePeakCeiling {
		scale := tonePeakCeiling / peak
		for i := range wave {
			wave[i] *= scale
		}
	}
	return wave, nil
}
