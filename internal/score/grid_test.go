package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimingGridRejectsBadParams(t *testing.T) {
	_, err := NewTimingGrid(0, 4, 4)
	assert.Error(t, err)
	_, err = NewTimingGrid(120, 0, 4)
	assert.Error(t, err)
	_, err = NewTimingGrid(120, 4, -1)
	assert.Error(t, err)
}

func TestSecondsPerBeat(t *testing.T) {
	tests := []struct {
		bpm  float64
		want float64
	}{
		{60, 1.0},
		{120, 0.5},
		{90, 60.0 / 90.0},
	}
	for _, tt := range tests {
		g, err := NewTimingGrid(tt.bpm, 4, 4)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, g.SecondsPerBeat(), 1e-12, "bpm %.0f", tt.bpm)
	}
}

func TestSeconds(t *testing.T) {
	g, err := NewTimingGrid(120, 5, 6)
	require.NoError(t, err)
	tests := []struct {
		measure, beat, position int
		want                    float64
	}{
		{0, 0, 0, 0},
		{0, 1, 0, 0.5},
		{1, 0, 0, 2.5},            // 5 beats at 0.5s
		{0, 0, 3, 0.25},           // half a beat into subdivision of 6
		{2, 3, 2, (13 + 1.0/3) * 0.5},
	}
	for _, tt := range tests {
		got := g.Seconds(tt.measure, tt.beat, tt.position)
		assert.InDelta(t, tt.want, got, 1e-12, "(%d,%d,%d)", tt.measure, tt.beat, tt.position)
	}
}

func TestResolve(t *testing.T) {
	g, err := NewTimingGrid(60, 4, 4)
	require.NoError(t, err)
	n, err := g.Resolve(GridNote{Measure: 1, Beat: 1, Position: 2, DurationBeats: 1.5, Velocity: 96, Frequencies: []float64{220}})
	require.NoError(t, err)
	assert.InDelta(t, 5.5, n.Start, 1e-12)
	assert.InDelta(t, 1.5, n.Duration, 1e-12)
	assert.Equal(t, 96, n.Velocity)
}

func TestResolveRejectsOutOfRange(t *testing.T) {
	g, err := NewTimingGrid(60, 4, 4)
	require.NoError(t, err)
	tests := []struct {
		name string
		note GridNote
	}{
		{"negative measure", GridNote{Measure: -1, DurationBeats: 1, Frequencies: []float64{220}}},
		{"beat outside measure", GridNote{Beat: 4, DurationBeats: 1, Frequencies: []float64{220}}},
		{"position outside beat", GridNote{Position: 4, DurationBeats: 1, Frequencies: []float64{220}}},
		{"zero duration", GridNote{DurationBeats: 0, Frequencies: []float64{220}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Resolve(tt.note)
			assert.Error(t, err)
		})
	}
}
