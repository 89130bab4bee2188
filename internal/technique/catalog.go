package technique

import (
	"errors"
	"fmt"
	"sort"

	"github.com/satindergrewal/virtuoso/internal/score"
)

// ErrUnknownTechnique is returned by Lookup for names not in the catalog.
// Callers treat it as recoverable: rendering proceeds without the technique.
var ErrUnknownTechnique = errors.New("unknown technique")

// Catalog is an immutable set of techniques looked up by name. Build one
// with Builtin or Load and pass it by reference; lookups never mutate it.
type Catalog struct {
	byName map[string]Technique
	names  []string
}

// New builds a catalog from a technique list, validating every entry.
// Later entries replace earlier ones with the same name.
func New(techs []Technique) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Technique, len(techs))}
	for _, t := range techs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		c.byName[t.Name] = t
	}
	c.names = make([]string, 0, len(c.byName))
	for name := range c.byName {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Builtin returns the catalog of built-in techniques.
func Builtin() *Catalog {
	c, err := New(builtinTechniques())
	if err != nil {
		// The builtin table is fixed at compile time; a validation failure
		// is a programming error.
		panic(fmt.Sprintf("builtin catalog invalid: %v", err))
	}
	return c
}

// Lookup returns the named technique or ErrUnknownTechnique.
func (c *Catalog) Lookup(name string) (Technique, error) {
	t, ok := c.byName[name]
	if !ok {
		return Technique{}, fmt.Errorf("%w: %q", ErrUnknownTechnique, name)
	}
	return t, nil
}

// Applicable returns the techniques suited to a track kind at or below the
// given skill, sorted by name.
func (c *Catalog) Applicable(kind score.TrackKind, skill Skill) []Technique {
	var out []Technique
	for _, name := range c.names {
		t := c.byName[name]
		if t.AppliesTo(kind) && skill.Allows(t.MinSkill) {
			out = append(out, t)
		}
	}
	return out
}

// Names returns all technique names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of techniques in the catalog.
func (c *Catalog) Len() int { return len(c.byName) }

func builtinTechniques() []Technique {
	melody := []score.TrackKind{score.TrackMelody}
	melodyBass := []score.TrackKind{score.TrackMelody, score.TrackBass}
	melodyChord := []score.TrackKind{score.TrackMelody, score.TrackChord}
	bassChord := []score.TrackKind{score.TrackBass, score.TrackChord}
	chord := []score.TrackKind{score.TrackChord}

	return []Technique{
		{
			Name: "thirds_parallel", Category: CategoryParallel, Tracks: melody,
			MinSkill: SkillBasic, Complexity: 1.5,
			Parallel: &ParallelParams{Ratios: []float64{5.0 / 4.0}, Velocities: []float64{0.8}, Offsets: []float64{0}},
		},
		{
			Name: "fifths_parallel", Category: CategoryParallel, Tracks: melodyBass,
			MinSkill: SkillBasic, Complexity: 1.8,
			Parallel: &ParallelParams{Ratios: []float64{3.0 / 2.0}, Velocities: []float64{0.9}, Offsets: []float64{0}},
		},
		{
			Name: "octave_doubling", Category: CategoryParallel, Tracks: melodyBass,
			MinSkill: SkillAdvanced, Complexity: 2.2,
			Parallel: &ParallelParams{Ratios: []float64{2.0, 0.5}, Velocities: []float64{0.7, 0.6}, Offsets: []float64{0, 0}},
		},
		{
			Name: "chord_cascade", Category: CategoryParallel, Tracks: melody,
			MinSkill: SkillVirtuoso, Complexity: 3.5,
			Parallel: &ParallelParams{
				Ratios:     []float64{5.0 / 4.0, 3.0 / 2.0, 15.0 / 8.0},
				Velocities: []float64{0.8, 0.9, 0.7},
				Offsets:    []float64{0.02, 0.04, 0.06},
			},
		},
		{
			Name: "cluster_harmony", Category: CategoryParallel, Tracks: chord,
			MinSkill: SkillSuperhuman, Complexity: 4.2,
			Parallel: &ParallelParams{
				Ratios:     []float64{9.0 / 8.0, 5.0 / 4.0, 11.0 / 8.0, 3.0 / 2.0},
				Velocities: []float64{0.6, 0.7, 0.8, 0.9},
				Offsets:    []float64{0, 0, 0, 0},
			},
		},
		{
			Name: "trill_ornament", Category: CategoryOrnament, Tracks: melody,
			MinSkill: SkillAdvanced, Complexity: 2.0,
			Ornament: &OrnamentParams{Pattern: OrnamentTrill, Intervals: []float64{9.0 / 8.0}, Speed: 8},
		},
		{
			Name: "grace_notes", Category: CategoryOrnament, Tracks: melody,
			MinSkill: SkillBasic, Complexity: 1.3,
			Ornament: &OrnamentParams{Pattern: OrnamentLeading, Intervals: []float64{9.0 / 8.0, 5.0 / 4.0}, Duration: 0.05},
		},
		{
			Name: "staccato_burst", Category: CategoryArticulation, Tracks: melodyChord,
			MinSkill: SkillAdvanced, Complexity: 1.8,
			Articulation: &ArticulationParams{DurationScale: 0.5, VelocityScale: 1.2},
		},
		{
			Name: "legato_flow", Category: CategoryArticulation, Tracks: melody,
			MinSkill: SkillBasic, Complexity: 1.2,
			Articulation: &ArticulationParams{DurationScale: 1.1, VelocityScale: 0.9},
		},
		{
			Name: "hand_crossing", Category: CategoryComposite, Tracks: melody,
			MinSkill: SkillVirtuoso, Complexity: 3.8,
			Composite: &CompositeParams{Tags: []string{"hand_crossing"}},
		},
		{
			Name: "polyrhythm_weaving", Category: CategoryComposite, Tracks: melodyChord,
			MinSkill: SkillSuperhuman, Complexity: 5.0,
			Composite: &CompositeParams{Tags: []string{"polyrhythm_weaving"}},
		},
		{
			Name: "five_element_cascade", Category: CategoryComposite, Tracks: melody,
			MinSkill: SkillSuperhuman, Complexity: 4.5,
			Composite: &CompositeParams{
				Cascade: &CascadeParams{Count: 5, FreqStep: 1.2, Duration: 0.05, VelocityDrop: 10, OffsetStep: 0.05},
				Tags:    []string{"special_five_element_cascade"},
			},
		},
		{
			Name: "petersen_graph_jump", Category: CategoryComposite, Tracks: melodyChord,
			MinSkill: SkillSuperhuman, Complexity: 4.8,
			Composite: &CompositeParams{
				Voices: &ParallelParams{
					Ratios:     []float64{5.0 / 4.0, 3.0 / 2.0, 2.0},
					Velocities: []float64{0.8, 0.7, 0.6},
					Offsets:    []float64{0, 0.02, 0.04},
				},
				Tags: []string{"special_petersen_graph_jump"},
			},
		},
		{
			Name: "yin_yang_alternation", Category: CategoryComposite, Tracks: bassChord,
			MinSkill: SkillVirtuoso, Complexity: 3.2,
			Composite: &CompositeParams{
				Voices: &ParallelParams{Ratios: []float64{0.5}, Velocities: []float64{1.5}, Offsets: []float64{0}},
				Tags:   []string{"dynamic_contrast", "philosophical", "special_yin_yang_alternation"},
			},
		},
	}
}
