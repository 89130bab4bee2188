package technique

import (
	"fmt"
	"strings"

	"github.com/satindergrewal/virtuoso/internal/score"
)

// Category is the technique kind; exactly one parameter bundle below
// matches each category.
type Category string

const (
	CategoryParallel     Category = "parallel"
	CategoryOrnament     Category = "ornament"
	CategoryArticulation Category = "articulation"
	CategoryComposite    Category = "composite"
)

// ParallelParams describe interval voices stacked on the primary note.
// The three slices are indexed together; Velocities and Offsets fall back
// to 1.0 and 0.0 when shorter than Ratios.
type ParallelParams struct {
	Ratios     []float64 `yaml:"ratios"`
	Velocities []float64 `yaml:"velocities"`
	Offsets    []float64 `yaml:"offsets"`
}

// Ornament patterns.
const (
	OrnamentTrill   = "trill"
	OrnamentLeading = "leading"
)

// OrnamentParams describe short decorative notes around the primary attack.
type OrnamentParams struct {
	Pattern   string    `yaml:"pattern"`             // trill | leading
	Intervals []float64 `yaml:"intervals"`           // frequency ratios, first used for trill
	Speed     int       `yaml:"speed,omitempty"`     // trill alternations per second
	Duration  float64   `yaml:"duration,omitempty"`  // leading note length in seconds
}

// ArticulationParams scale the primary note in place.
type ArticulationParams struct {
	DurationScale float64 `yaml:"duration_scale"`
	VelocityScale float64 `yaml:"velocity_scale"`
}

// CascadeParams describe a fan of ascending ornaments.
type CascadeParams struct {
	Count        int     `yaml:"count"`
	FreqStep     float64 `yaml:"freq_step"`     // multiplicative per step
	Duration     float64 `yaml:"duration"`      // each ornament's length
	VelocityDrop int     `yaml:"velocity_drop"` // subtracted per step
	OffsetStep   float64 `yaml:"offset_step"`   // seconds between steps
}

// CompositeParams bundle the effects of the coordination and signature
// techniques: optional stacked voices, an optional ornament cascade, and
// expression tags attached to the note.
type CompositeParams struct {
	Voices  *ParallelParams `yaml:"voices,omitempty"`
	Cascade *CascadeParams  `yaml:"cascade,omitempty"`
	Tags    []string        `yaml:"tags,omitempty"`
}

// Technique is one catalog entry. Exactly one of the parameter pointers is
// set, matching Category. Values are immutable once the catalog is built.
type Technique struct {
	Name       string
	Category   Category
	Tracks     []score.TrackKind
	MinSkill   Skill
	Complexity float64

	Parallel     *ParallelParams
	Ornament     *OrnamentParams
	Articulation *ArticulationParams
	Composite    *CompositeParams
}

// AppliesTo reports whether the technique suits the given track kind.
func (t Technique) AppliesTo(kind score.TrackKind) bool {
	for _, k := range t.Tracks {
		if k == kind {
			return true
		}
	}
	return false
}

// Special reports whether the technique carries a signature mark, which
// feeds the complexity score.
func (t Technique) Special() bool {
	if t.Composite == nil {
		return false
	}
	for _, tag := range t.Composite.Tags {
		if strings.HasPrefix(tag, "special_") {
			return true
		}
	}
	return false
}

// Validate checks the category/parameter pairing and value sanity.
func (t Technique) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("technique has no name")
	}
	if len(t.Tracks) == 0 {
		return fmt.Errorf("technique %q applies to no tracks", t.Name)
	}
	for _, k := range t.Tracks {
		if !k.Valid() {
			return fmt.Errorf("technique %q: unknown track kind %q", t.Name, k)
		}
	}
	if !t.MinSkill.Valid() {
		return fmt.Errorf("technique %q: invalid skill %d", t.Name, t.MinSkill)
	}
	if t.Complexity <= 0 {
		return fmt.Errorf("technique %q: complexity %.2f not positive", t.Name, t.Complexity)
	}

	set := 0
	if t.Parallel != nil {
		set++
	}
	if t.Ornament != nil {
		set++
	}
	if t.Articulation != nil {
		set++
	}
	if t.Composite != nil {
		set++
	}

	switch t.Category {
	case CategoryParallel:
		if t.Parallel == nil || set != 1 {
			return fmt.Errorf("technique %q: parallel category needs exactly parallel params", t.Name)
		}
		if len(t.Parallel.Ratios) == 0 {
			return fmt.Errorf("technique %q: no interval ratios", t.Name)
		}
		for _, r := range t.Parallel.Ratios {
			if r <= 0 {
				return fmt.Errorf("technique %q: interval ratio %.3f not positive", t.Name, r)
			}
		}
	case CategoryOrnament:
		if t.Ornament == nil || set != 1 {
			return fmt.Errorf("technique %q: ornament category needs exactly ornament params", t.Name)
		}
		switch t.Ornament.Pattern {
		case OrnamentTrill, OrnamentLeading:
		default:
			return fmt.Errorf("technique %q: unknown ornament pattern %q", t.Name, t.Ornament.Pattern)
		}
		if len(t.Ornament.Intervals) == 0 {
			return fmt.Errorf("technique %q: no ornament intervals", t.Name)
		}
	case CategoryArticulation:
		if t.Articulation == nil || set != 1 {
			return fmt.Errorf("technique %q: articulation category needs exactly articulation params", t.Name)
		}
		if t.Articulation.DurationScale <= 0 || t.Articulation.VelocityScale <= 0 {
			return fmt.Errorf("technique %q: articulation scales must be positive", t.Name)
		}
	case CategoryComposite:
		if t.Composite == nil || set != 1 {
			return fmt.Errorf("technique %q: composite category needs exactly composite params", t.Name)
		}
		if t.Composite.Voices == nil && t.Composite.Cascade == nil && len(t.Composite.Tags) == 0 {
			return fmt.Errorf("technique %q: composite has no effect", t.Name)
		}
	default:
		return fmt.Errorf("technique %q: unknown category %q", t.Name, t.Category)
	}
	return nil
}
