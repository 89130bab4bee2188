package effects

import (
	"math"

	"github.com/satindergrewal/virtuoso/internal/synth"
)

const (
	reverbDelay    = 0.03 // seconds
	reverbFeedback = 0.3
	reverbMix      = 0.2
	compThreshold  = 0.7
	compRatio      = 4.0
	limiterCeiling = 0.95
)

// Config toggles the post-processing stages.
type Config struct {
	Reverb     bool `json:"reverb" yaml:"reverb"`
	Compressor bool `json:"compressor" yaml:"compressor"`
	Limiter    bool `json:"limiter" yaml:"limiter"`
}

// All enables every stage.
func All() Config {
	return Config{Reverb: true, Compressor: true, Limiter: true}
}

// Chain applies the enabled stages in place, in a fixed order: reverb,
// then compression, then limiting.
type Chain struct {
	cfg Config
}

func NewChain(cfg Config) *Chain {
	return &Chain{cfg: cfg}
}

func (c *Chain) Process(buf *synth.Buffer) {
	if buf == nil || len(buf.Samples) == 0 {
		return
	}
	if c.cfg.Reverb {
		applyReverb(buf)
	}
	if c.cfg.Compressor {
		applyCompressor(buf)
	}
	if c.cfg.Limiter {
		applyLimiter(buf)
	}
}

// applyReverb mixes in a feedback comb per channel. The delay line reads
// the dry signal, so it is computed in full before the wet mix lands.
func applyReverb(buf *synth.Buffer) {
	delay := int(reverbDelay * float64(buf.SampleRate))
	if delay <= 0 {
		return
	}
	frames := buf.Frames()
	for ch := 0; ch < 2; ch++ {
		delayed := make([]float64, frames)
		for f := delay; f < frames; f++ {
			delayed[f] = buf.Samples[2*(f-delay)+ch] + reverbFeedback*delayed[f-delay]
		}
		for f := 0; f < frames; f++ {
			buf.Samples[2*f+ch] += reverbMix * delayed[f]
		}
	}
}

// applyCompressor soft-knees every sample above the threshold.
func applyCompressor(buf *synth.Buffer) {
	for i, s := range buf.Samples {
		a := math.Abs(s)
		if a <= compThreshold {
			continue
		}
		soft := compThreshold + (a-compThreshold)/compRatio
		if s < 0 {
			soft = -soft
		}
		buf.Samples[i] = soft
	}
}

// applyLimiter rescales the whole buffer when its peak exceeds the
// ceiling, preserving relative dynamics.
func applyLimiter(buf *synth.Buffer) {
	peak := buf.Peak()
	if peak <= limiterCeiling {
		return
	}
	scale := limiterCeiling / peak
	for i := range buf.Samples {
		buf.Samples[i] *= scale
	}
}
