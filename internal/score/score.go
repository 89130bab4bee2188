package score

import (
	"fmt"
	"sort"
)

// TrackKind identifies which part of the arrangement a track carries.
type TrackKind string

const (
	TrackBass   TrackKind = "bass"
	TrackChord  TrackKind = "chord"
	TrackMelody TrackKind = "melody"
)

// Valid reports whether k is one of the known track kinds.
func (k TrackKind) Valid() bool {
	switch k {
	case TrackBass, TrackChord, TrackMelody:
		return true
	}
	return false
}

// Note is one normalized input note: absolute time in seconds, velocity in
// MIDI range, and one frequency (melody/bass) or several (chords).
type Note struct {
	Start       float64   `json:"start" yaml:"start"`
	Duration    float64   `json:"duration" yaml:"duration"`
	Velocity    int       `json:"velocity" yaml:"velocity"`
	Frequencies []float64 `json:"frequencies" yaml:"frequencies"`
}

// End returns the absolute end time of the note in seconds.
func (n Note) End() float64 { return n.Start + n.Duration }

// Validate checks the note against the input contract.
func (n Note) Validate() error {
	if n.Start < 0 {
		return fmt.Errorf("note start %.3f before zero", n.Start)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("note duration %.3f not positive", n.Duration)
	}
	if n.Velocity < 0 || n.Velocity > 127 {
		return fmt.Errorf("note velocity %d outside 0..127", n.Velocity)
	}
	if len(n.Frequencies) == 0 {
		return fmt.Errorf("note has no frequencies")
	}
	for _, f := range n.Frequencies {
		if f <= 0 {
			return fmt.Errorf("note frequency %.3f not positive", f)
		}
	}
	return nil
}

// Track is an ordered note sequence for one kind. Notes may arrive in
// either absolute form or beat-space form; Normalize folds the latter in.
type Track struct {
	Kind      TrackKind  `json:"kind" yaml:"kind"`
	Notes     []Note     `json:"notes,omitempty" yaml:"notes,omitempty"`
	GridNotes []GridNote `json:"grid_notes,omitempty" yaml:"grid_notes,omitempty"`
}

// Composition is the full multi-track input to a render call. Style is a
// free-form character label ("calm_meditation", "dynamic_dance") consulted
// when techniques are auto-selected.
type Composition struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Style  string  `json:"style,omitempty" yaml:"style,omitempty"`
	BPM    float64 `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	Grid   *Grid   `json:"grid,omitempty" yaml:"grid,omitempty"`
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

// Normalize converts beat-space notes to absolute seconds, sorts every
// track by start time, and validates the result. It must be called once
// after loading and before rendering.
func (c *Composition) Normalize() error {
	var grid TimingGrid
	needGrid := false
	for _, t := range c.Tracks {
		if len(t.GridNotes) > 0 {
			needGrid = true
			break
		}
	}
	if needGrid {
		g, err := c.timingGrid()
		if err != nil {
			return err
		}
		grid = g
	}

	for ti := range c.Tracks {
		t := &c.Tracks[ti]
		if !t.Kind.Valid() {
			return fmt.Errorf("track %d: unknown kind %q", ti, t.Kind)
		}
		for _, gn := range t.GridNotes {
			n, err := grid.Resolve(gn)
			if err != nil {
				return fmt.Errorf("track %d (%s): %w", ti, t.Kind, err)
			}
			t.Notes = append(t.Notes, n)
		}
		t.GridNotes = nil
		sort.SliceStable(t.Notes, func(i, j int) bool {
			return t.Notes[i].Start < t.Notes[j].Start
		})
		for ni, n := range t.Notes {
			if err := n.Validate(); err != nil {
				return fmt.Errorf("track %d (%s) note %d: %w", ti, t.Kind, ni, err)
			}
		}
	}
	return nil
}

func (c *Composition) timingGrid() (TimingGrid, error) {
	if c.BPM <= 0 {
		return TimingGrid{}, fmt.Errorf("beat-space notes require a positive bpm, got %.2f", c.BPM)
	}
	beats, positions := DefaultBeatsPerMeasure, DefaultPositionsPerBeat
	if c.Grid != nil {
		if c.Grid.BeatsPerMeasure > 0 {
			beats = c.Grid.BeatsPerMeasure
		}
		if c.Grid.PositionsPerBeat > 0 {
			positions = c.Grid.PositionsPerBeat
		}
	}
	return NewTimingGrid(c.BPM, beats, positions)
}

// Duration returns the latest note end across all tracks, in seconds.
func (c *Composition) Duration() float64 {
	var end float64
	for _, t := range c.Tracks {
		for _, n := range t.Notes {
			if e := n.End(); e > end {
				end = e
			}
		}
	}
	return end
}

// NoteCount returns the total number of notes across all tracks.
func (c *Composition) NoteCount() int {
	total := 0
	for _, t := range c.Tracks {
		total += len(t.Notes)
	}
	return total
}
