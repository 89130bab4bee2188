package synth

import (
	"math"

	"github.com/satindergrewal/virtuoso/internal/perform"
)

// Role classifies where a sound event came from within its note.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleParallel Role = "parallel"
	RoleOrnament Role = "ornament"
)

// SoundEvent is one independent tone to synthesize. Events are the flat
// currency between a performance and the engine; they carry no note
// structure of their own.
type SoundEvent struct {
	Start     float64
	Frequency float64
	Duration  float64
	Velocity  int
	Role      Role
}

// End returns the event's end time in seconds.
func (e SoundEvent) End() float64 {
	return e.Start + e.Duration
}

// Flatten expands a performance into sound events: one per chord tone,
// one per parallel voice, one per ornament. Parallel voices derive from
// the first chord frequency and keep the note's duration. Starts that
// land before zero, as leading graces do, are clamped to zero.
func Flatten(p *perform.Performance) []SoundEvent {
	if p == nil {
		return nil
	}
	var events []SoundEvent
	for _, n := range p.Notes {
		for _, f := range n.Frequencies {
			events = append(events, SoundEvent{
				Start:     n.Start,
				Frequency: f,
				Duration:  n.Duration,
				Velocity:  n.Velocity,
				Role:      RolePrimary,
			})
		}
		if len(n.Frequencies) > 0 {
			base := n.Frequencies[0]
			for _, v := range n.Parallels {
				events = append(events, SoundEvent{
					Start:     math.Max(0, n.Start+v.Offset),
					Frequency: base * v.Ratio,
					Duration:  n.Duration,
					Velocity:  int(float64(n.Velocity) * v.Velocity),
					Role:      RoleParallel,
				})
			}
		}
		for _, o := range n.Ornaments {
			events = append(events, SoundEvent{
				Start:     math.Max(0, n.Start+o.Offset),
				Frequency: o.Frequency,
				Duration:  o.Duration,
				Velocity:  o.Velocity,
				Role:      RoleOrnament,
			})
		}
	}
	return events
}
