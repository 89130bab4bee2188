package render

import (
	"fmt"
	"time"

	"github.com/satindergrewal/virtuoso/internal/effects"
	"github.com/satindergrewal/virtuoso/internal/perform"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// Mode selects the rendering strategy.
type Mode string

const (
	ModeRealTime    Mode = "real_time"    // low latency, single-threaded synthesis
	ModeHighQuality Mode = "high_quality" // offline, parallel synthesis
)

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeRealTime, ModeHighQuality:
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown render mode %q", name)
}

// Quality names a settings preset.
type Quality string

const (
	QualityDraft    Quality = "draft"
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
	QualityStudio   Quality = "studio"
)

// Qualities lists the presets from fastest to finest.
func Qualities() []Quality {
	return []Quality{QualityDraft, QualityStandard, QualityHigh, QualityStudio}
}

// ParseQuality resolves a preset name.
func ParseQuality(name string) (Quality, error) {
	switch Quality(name) {
	case QualityDraft, QualityStandard, QualityHigh, QualityStudio:
		return Quality(name), nil
	}
	return "", fmt.Errorf("unknown quality preset %q", name)
}

// Settings pin every knob of one render. Build them with NewSettings so
// mode constraints are applied; hand-rolled values go through Validate
// before any rendering starts.
type Settings struct {
	Mode              Mode           `json:"mode"`
	Quality           Quality        `json:"quality"`
	SampleRate        int            `json:"sample_rate"`
	BitDepth          int            `json:"bit_depth"`
	BlockSize         int            `json:"block_size"`
	MaxPolyphony      int            `json:"max_polyphony"`
	LatencyTarget     time.Duration  `json:"latency_target"`
	MaxParallelVoices int            `json:"max_parallel_voices"`
	Superhuman        bool           `json:"superhuman"`
	Density           string         `json:"density"`
	Expression        string         `json:"expression,omitempty"` // style name; empty disables the pass
	Effects           effects.Config `json:"effects"`
}

var presets = map[Quality]Settings{
	QualityDraft: {
		Quality:           QualityDraft,
		SampleRate:        22050,
		BitDepth:          16,
		BlockSize:         1024,
		MaxPolyphony:      32,
		LatencyTarget:     100 * time.Millisecond,
		MaxParallelVoices: 2,
		Superhuman:        false,
		Density:           "sparse",
	},
	QualityStandard: {
		Quality:           QualityStandard,
		SampleRate:        44100,
		BitDepth:          16,
		BlockSize:         512,
		MaxPolyphony:      64,
		LatencyTarget:     50 * time.Millisecond,
		MaxParallelVoices: 3,
		Superhuman:        false,
		Density:           "moderate",
		Expression:        "natural",
		Effects:           effects.All(),
	},
	QualityHigh: {
		Quality:           QualityHigh,
		SampleRate:        48000,
		BitDepth:          24,
		BlockSize:         256,
		MaxPolyphony:      128,
		LatencyTarget:     20 * time.Millisecond,
		MaxParallelVoices: 5,
		Superhuman:        true,
		Density:           "rich",
		Expression:        "natural",
		Effects:           effects.All(),
	},
	QualityStudio: {
		Quality:           QualityStudio,
		SampleRate:        96000,
		BitDepth:          32,
		BlockSize:         128,
		MaxPolyphony:      256,
		LatencyTarget:     10 * time.Millisecond,
		MaxParallelVoices: 8,
		Superhuman:        true,
		Density:           "extreme",
		Expression:        "natural",
		Effects:           effects.All(),
	},
}

// NewSettings builds the settings for a mode and quality. Real-time mode
// only sustains the draft and standard presets; finer requests downgrade
// to standard and the downgrade is reported.
func NewSettings(mode Mode, quality Quality) (Settings, []string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return Settings{}, nil, err
	}
	s, ok := presets[quality]
	if !ok {
		return Settings{}, nil, fmt.Errorf("unknown quality preset %q", quality)
	}

	var adjustments []string
	if mode == ModeRealTime && (quality == QualityHigh || quality == QualityStudio) {
		s = presets[QualityStandard]
		adjustments = append(adjustments,
			fmt.Sprintf("quality %s downgraded to %s for real-time rendering", quality, QualityStandard))
	}
	s.Mode = mode
	return s, adjustments, nil
}

// Validate reports the first fatal problem with the settings. It runs
// before any buffer is allocated.
func (s Settings) Validate() error {
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d is not positive", s.SampleRate)
	}
	switch s.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("bit depth %d is not supported (16, 24, or 32)", s.BitDepth)
	}
	if s.MaxPolyphony <= 0 {
		return fmt.Errorf("max polyphony %d is not positive", s.MaxPolyphony)
	}
	if _, err := technique.ParseDensity(s.Density); err != nil {
		return err
	}
	if s.Expression != "" {
		if _, err := perform.ParseStyle(s.Expression); err != nil {
			return err
		}
	}
	return nil
}

// normalize clamps whatever the mode cannot honor and reports each
// change. Settings built by NewSettings never need clamping; hand-rolled
// ones might.
func (s *Settings) normalize() []string {
	if s.Mode != ModeRealTime {
		return nil
	}
	var adjustments []string
	if s.SampleRate > 44100 {
		adjustments = append(adjustments,
			fmt.Sprintf("sample rate %d capped at 44100 for real-time rendering", s.SampleRate))
		s.SampleRate = 44100
	}
	if s.BitDepth > 16 {
		adjustments = append(adjustments,
			fmt.Sprintf("bit depth %d capped at 16 for real-time rendering", s.BitDepth))
		s.BitDepth = 16
	}
	if d, err := technique.ParseDensity(s.Density); err == nil && d > technique.DensityModerate {
		adjustments = append(adjustments,
			fmt.Sprintf("density %s capped at moderate for real-time rendering", s.Density))
		s.Density = "moderate"
	}
	if limit := presets[QualityStandard].MaxPolyphony; s.MaxPolyphony > limit {
		adjustments = append(adjustments,
			fmt.Sprintf("polyphony %d capped at %d for real-time rendering", s.MaxPolyphony, limit))
		s.MaxPolyphony = limit
	}
	return adjustments
}
