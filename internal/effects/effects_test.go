package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

func TestReverbEchoes(t *testing.T) {
	buf := synth.NewBuffer(1000, 100)
	buf.Samples[0] = 1.0
	buf.Samples[1] = 1.0

	NewChain(Config{Reverb: true}).Process(buf)

	// delay is 30 frames at 1 kHz: the impulse repeats at 0.2 wet gain,
	// then feeds back at 0.3 per pass.
	assert.InDelta(t, 1.0, buf.Samples[0], 1e-12, "dry signal preserved")
	assert.InDelta(t, 0.2, buf.Samples[2*30], 1e-12)
	assert.InDelta(t, 0.06, buf.Samples[2*60], 1e-12)
	assert.InDelta(t, 0.2, buf.Samples[2*30+1], 1e-12, "both channels processed")
	assert.Zero(t, buf.Samples[2*15], "nothing lands before the delay")
}

func TestCompressorSoftKnee(t *testing.T) {
	buf := synth.NewBuffer(44100, 2)
	buf.Samples = []float64{0.5, -0.5, 0.9, -1.0}

	NewChain(Config{Compressor: true}).Process(buf)

	assert.Equal(t, 0.5, buf.Samples[0], "below threshold untouched")
	assert.Equal(t, -0.5, buf.Samples[1])
	assert.InDelta(t, 0.75, buf.Samples[2], 1e-12)
	assert.InDelta(t, -0.775, buf.Samples[3], 1e-12)
}

func TestLimiterCeiling(t *testing.T) {
	buf := synth.NewBuffer(44100, 2)
	buf.Samples = []float64{2.0, -1.0, 0.5, 0.1}

	NewChain(Config{Limiter: true}).Process(buf)

	assert.InDelta(t, 0.95, buf.Peak(), 1e-12)
	assert.InDelta(t, -0.475, buf.Samples[1], 1e-12, "relative dynamics preserved")
}

func TestLimiterLeavesQuietAudioAlone(t *testing.T) {
	buf := synth.NewBuffer(44100, 2)
	buf.Samples = []float64{0.9, -0.9, 0.5, 0.1}
	want := append([]float64(nil), buf.Samples...)

	NewChain(Config{Limiter: true}).Process(buf)
	assert.Equal(t, want, buf.Samples)
}

func TestDisabledChainIsIdentity(t *testing.T) {
	buf := synth.NewBuffer(44100, 4)
	for i := range buf.Samples {
		buf.Samples[i] = float64(i) * 0.1
	}
	want := append([]float64(nil), buf.Samples...)

	NewChain(Config{}).Process(buf)
	assert.Equal(t, want, buf.Samples)
}

func TestFullChainStaysUnderCeiling(t *testing.T) {
	buf := synth.NewBuffer(8000, 400)
	for f := 0; f < 200; f++ {
		buf.Samples[2*f] = 1.5
		buf.Samples[2*f+1] = -1.5
	}

	NewChain(All()).Process(buf)

	require.NotZero(t, buf.Peak())
	assert.LessOrEqual(t, buf.Peak(), 0.95+1e-12)
}

func TestProcessNilBuffer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewChain(All()).Process(nil)
		NewChain(All()).Process(&synth.Buffer{SampleRate: 44100})
	})
}
