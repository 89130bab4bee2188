package render

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetTable(t *testing.T) {
	var buf bytes.Buffer
	for _, q := range Qualities() {
		s, adjustments, err := NewSettings(ModeHighQuality, q)
		require.NoError(t, err)
		require.Empty(t, adjustments)
		fmt.Fprintf(&buf, "%s\t%d\t%d\t%d\t%d\t%s\t%d\t%s\t%t\t%q\t%t/%t/%t\n",
			s.Quality, s.SampleRate, s.BitDepth, s.BlockSize, s.MaxPolyphony,
			s.LatencyTarget, s.MaxParallelVoices, s.Density, s.Superhuman,
			s.Expression, s.Effects.Reverb, s.Effects.Compressor, s.Effects.Limiter)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "presets", buf.Bytes())
}

func TestRealTimeDowngradesQuality(t *testing.T) {
	s, adjustments, err := NewSettings(ModeRealTime, QualityStudio)
	require.NoError(t, err)

	assert.Equal(t, ModeRealTime, s.Mode)
	assert.Equal(t, QualityStandard, s.Quality)
	assert.Equal(t, 44100, s.SampleRate)
	assert.Equal(t, 16, s.BitDepth)
	require.Len(t, adjustments, 1)
	assert.Contains(t, adjustments[0], "downgraded to standard")
}

func TestRealTimeKeepsDraftAndStandard(t *testing.T) {
	for _, q := range []Quality{QualityDraft, QualityStandard} {
		s, adjustments, err := NewSettings(ModeRealTime, q)
		require.NoError(t, err)
		assert.Equal(t, q, s.Quality)
		assert.Empty(t, adjustments)
	}
}

func TestNewSettingsRejectsUnknown(t *testing.T) {
	_, _, err := NewSettings(Mode("turbo"), QualityDraft)
	assert.Error(t, err)

	_, _, err = NewSettings(ModeHighQuality, Quality("lossless"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good, _, err := NewSettings(ModeHighQuality, QualityStandard)
	require.NoError(t, err)
	require.NoError(t, good.Validate())

	cases := map[string]func(*Settings){
		"zero sample rate":   func(s *Settings) { s.SampleRate = 0 },
		"negative rate":      func(s *Settings) { s.SampleRate = -44100 },
		"odd bit depth":      func(s *Settings) { s.BitDepth = 20 },
		"zero polyphony":     func(s *Settings) { s.MaxPolyphony = 0 },
		"unknown density":    func(s *Settings) { s.Density = "thick" },
		"unknown expression": func(s *Settings) { s.Expression = "baroque" },
		"missing mode":       func(s *Settings) { s.Mode = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := good
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestNormalizeCapsRealTime(t *testing.T) {
	s, _, err := NewSettings(ModeHighQuality, QualityStudio)
	require.NoError(t, err)
	s.Mode = ModeRealTime

	adjustments := s.normalize()
	assert.Equal(t, 44100, s.SampleRate)
	assert.Equal(t, 16, s.BitDepth)
	assert.Equal(t, "moderate", s.Density)
	assert.Equal(t, 64, s.MaxPolyphony)
	assert.Len(t, adjustments, 4)
}

func TestNormalizeLeavesHighQualityAlone(t *testing.T) {
	s, _, err := NewSettings(ModeHighQuality, QualityStudio)
	require.NoError(t, err)

	assert.Empty(t, s.normalize())
	assert.Equal(t, 96000, s.SampleRate)
}

func TestParseModeAndQuality(t *testing.T) {
	m, err := ParseMode("real_time")
	require.NoError(t, err)
	assert.Equal(t, ModeRealTime, m)

	q, err := ParseQuality("studio")
	require.NoError(t, err)
	assert.Equal(t, QualityStudio, q)

	_, err = ParseMode("interactive")
	assert.Error(t, err)
	_, err = ParseQuality("best")
	assert.Error(t, err)
}
