package score

import "fmt"

const (
	DefaultBeatsPerMeasure  = 4
	DefaultPositionsPerBeat = 4
)

// Grid overrides the beat-space subdivision for a composition.
type Grid struct {
	BeatsPerMeasure  int `json:"beats_per_measure,omitempty" yaml:"beats_per_measure,omitempty"`
	PositionsPerBeat int `json:"positions_per_beat,omitempty" yaml:"positions_per_beat,omitempty"`
}

// GridNote places a note on the measure/beat grid instead of absolute time.
// Position subdivides a beat; DurationBeats is measured in whole beats.
type GridNote struct {
	Measure       int       `json:"measure" yaml:"measure"`
	Beat          int       `json:"beat" yaml:"beat"`
	Position      int       `json:"position,omitempty" yaml:"position,omitempty"`
	DurationBeats float64   `json:"duration_beats" yaml:"duration_beats"`
	Velocity      int       `json:"velocity" yaml:"velocity"`
	Frequencies   []float64 `json:"frequencies" yaml:"frequencies"`
}

// TimingGrid converts grid coordinates to absolute seconds at a fixed tempo.
type TimingGrid struct {
	BPM              float64
	BeatsPerMeasure  int
	PositionsPerBeat int
}

// NewTimingGrid builds a grid, rejecting non-positive parameters.
func NewTimingGrid(bpm float64, beatsPerMeasure, positionsPerBeat int) (TimingGrid, error) {
	if bpm <= 0 {
		return TimingGrid{}, fmt.Errorf("bpm %.2f not positive", bpm)
	}
	if beatsPerMeasure <= 0 || positionsPerBeat <= 0 {
		return TimingGrid{}, fmt.Errorf("grid %dx%d not positive", beatsPerMeasure, positionsPerBeat)
	}
	return TimingGrid{BPM: bpm, BeatsPerMeasure: beatsPerMeasure, PositionsPerBeat: positionsPerBeat}, nil
}

// SecondsPerBeat returns the beat length at the grid tempo.
func (g TimingGrid) SecondsPerBeat() float64 { return 60.0 / g.BPM }

// Seconds converts a measure/beat/position coordinate to absolute seconds.
func (g TimingGrid) Seconds(measure, beat, position int) float64 {
	beats := float64(measure*g.BeatsPerMeasure+beat) + float64(position)/float64(g.PositionsPerBeat)
	return beats * g.SecondsPerBeat()
}

// Resolve maps a GridNote to an absolute Note.
func (g TimingGrid) Resolve(n GridNote) (Note, error) {
	if n.Measure < 0 || n.Beat < 0 || n.Position < 0 {
		return Note{}, fmt.Errorf("grid note coordinate (%d,%d,%d) negative", n.Measure, n.Beat, n.Position)
	}
	if n.Beat >= g.BeatsPerMeasure {
		return Note{}, fmt.Errorf("grid note beat %d outside measure of %d", n.Beat, g.BeatsPerMeasure)
	}
	if n.Position >= g.PositionsPerBeat {
		return Note{}, fmt.Errorf("grid note position %d outside beat of %d", n.Position, g.PositionsPerBeat)
	}
	if n.DurationBeats <= 0 {
		return Note{}, fmt.Errorf("grid note duration %.3f beats not positive", n.DurationBeats)
	}
	return Note{
		Start:       g.Seconds(n.Measure, n.Beat, n.Position),
		Duration:    n.DurationBeats * g.SecondsPerBeat(),
		Velocity:    n.Velocity,
		Frequencies: n.Frequencies,
	}, nil
}
