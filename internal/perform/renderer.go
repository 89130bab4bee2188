package perform

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/satindergrewal/virtuoso/internal/score"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// Options configure one performance rendering pass.
type Options struct {
	Skill             technique.Skill
	Density           technique.Density
	Style             Style
	Expression        bool     // run the expression pass after techniques
	Techniques        []string // explicit programme; empty selects automatically
	MaxParallelVoices int      // hard per-note cap; 0 defers to the density cap
	Seed              uint64   // drives every random draw
}

// Renderer applies catalog techniques and an expression contour to a
// composition. Each render call should use a fresh Renderer; the random
// source is not safe for concurrent use.
type Renderer struct {
	catalog *technique.Catalog
	opts    Options
	params  technique.DensityParams
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewRenderer builds a renderer over the given catalog.
func NewRenderer(catalog *technique.Catalog, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		catalog: catalog,
		opts:    opts,
		params:  opts.Density.Params(),
		rng:     rand.New(rand.NewPCG(opts.Seed, 0)),
		logger:  logger,
	}
}

// Render embellishes the composition into a Performance. Identical
// composition, options, and seed produce an identical Performance.
func (r *Renderer) Render(comp *score.Composition) (*Performance, error) {
	if comp == nil || len(comp.Tracks) == 0 {
		return nil, fmt.Errorf("composition has no tracks")
	}

	names := r.opts.Techniques
	if len(names) == 0 {
		names = r.autoSelect(comp.Style)
	}

	perf := &Performance{Title: comp.Title, Skill: r.opts.Skill}
	resolved := r.resolve(names, perf)
	for _, t := range resolved {
		perf.Techniques = append(perf.Techniques, t.Name)
	}

	for _, track := range comp.Tracks {
		applicable := applicableSubset(resolved, track.Kind)
		r.logger.Debug("rendering track",
			"kind", track.Kind, "notes", len(track.Notes), "techniques", len(applicable))
		for i, in := range track.Notes {
			n := r.renderNote(track.Kind, in, applicable, perf)
			if r.opts.Expression {
				r.applyExpression(&n, i, len(track.Notes))
			}
			perf.Notes = append(perf.Notes, n)
		}
	}

	perf.MaxVoices = maxVoices(perf.Notes)
	perf.Complexity = complexityScore(perf.Notes)
	return perf, nil
}

// resolve maps technique names to catalog entries, dropping unknown names
// and entries above the configured skill with a warning. Rendering always
// proceeds with whatever remains.
func (r *Renderer) resolve(names []string, perf *Performance) []technique.Technique {
	out := make([]technique.Technique, 0, len(names))
	for _, name := range names {
		t, err := r.catalog.Lookup(name)
		if err != nil {
			r.logger.Warn("skipping technique", "name", name, "error", err)
			perf.Warnings = append(perf.Warnings, fmt.Sprintf("unknown technique %q skipped", name))
			continue
		}
		if !r.opts.Skill.Allows(t.MinSkill) {
			r.logger.Warn("technique above skill level",
				"name", name, "requires", t.MinSkill, "have", r.opts.Skill)
			perf.Warnings = append(perf.Warnings,
				fmt.Sprintf("technique %q requires %s skill, have %s", name, t.MinSkill, r.opts.Skill))
			continue
		}
		out = append(out, t)
	}
	return out
}

func applicableSubset(techs []technique.Technique, kind score.TrackKind) []technique.Technique {
	var out []technique.Technique
	for _, t := range techs {
		if t.AppliesTo(kind) {
			out = append(out, t)
		}
	}
	return out
}

func (r *Renderer) renderNote(kind score.TrackKind, in score.Note, applicable []technique.Technique, perf *Performance) Note {
	n := newNote(kind, in)
	if r.rng.Float64() >= r.params.NoteProbability || len(applicable) == 0 {
		return n
	}
	t := applicable[r.rng.IntN(len(applicable))]
	if err := r.applyTechnique(&n, t); err != nil {
		r.logger.Warn("technique failed, keeping plain note", "technique", t.Name, "error", err)
		perf.Warnings = append(perf.Warnings, fmt.Sprintf("technique %s: %v", t.Name, err))
		return newNote(kind, in)
	}
	return n
}

func newNote(kind score.TrackKind, in score.Note) Note {
	return Note{
		Track:        kind,
		Start:        in.Start,
		Duration:     in.Duration,
		Velocity:     in.Velocity,
		Frequencies:  append([]float64(nil), in.Frequencies...),
		Articulation: "normal",
	}
}

func (r *Renderer) applyTechnique(n *Note, t technique.Technique) error {
	switch t.Category {
	case technique.CategoryParallel:
		r.addVoices(n, t.Name, t.Parallel)
		return nil
	case technique.CategoryOrnament:
		return r.addOrnaments(n, t.Ornament)
	case technique.CategoryArticulation:
		applyArticulation(n, t.Name, t.Articulation)
		return nil
	case technique.CategoryComposite:
		return r.applyComposite(n, t.Name, t.Composite)
	}
	return fmt.Errorf("unhandled category %q", t.Category)
}

// addVoices stacks interval voices on the note, truncated to the
// effective per-note cap.
func (r *Renderer) addVoices(n *Note, label string, p *technique.ParallelParams) {
	limit := r.voiceLimit()
	for i, ratio := range p.Ratios {
		if len(n.Parallels) >= limit {
			break
		}
		v := ParallelVoice{Ratio: ratio, Velocity: 1.0, Label: fmt.Sprintf("%s_%d", label, i+1)}
		if i < len(p.Velocities) {
			v.Velocity = p.Velocities[i]
		}
		if i < len(p.Offsets) {
			v.Offset = p.Offsets[i]
		}
		n.Parallels = append(n.Parallels, v)
	}
}

func (r *Renderer) voiceLimit() int {
	limit := r.params.MaxParallelVoices
	if r.opts.MaxParallelVoices > 0 && r.opts.MaxParallelVoices < limit {
		limit = r.opts.MaxParallelVoices
	}
	return limit
}

func (r *Renderer) addOrnaments(n *Note, p *technique.OrnamentParams) error {
	if r.rng.Float64() >= r.params.OrnamentProbability {
		return nil
	}
	if len(n.Frequencies) == 0 {
		return fmt.Errorf("ornament needs a base frequency")
	}
	base := n.Frequencies[0]

	switch p.Pattern {
	case technique.OrnamentTrill:
		n.Ornaments = append(n.Ornaments, Ornament{
			Kind:      "trill",
			Frequency: base * p.Intervals[0],
			Duration:  0.1,
			Velocity:  n.Velocity / 2,
			Offset:    0.05,
		})
	case technique.OrnamentLeading:
		intervals := p.Intervals
		if len(intervals) > 2 {
			intervals = intervals[:2]
		}
		dur := p.Duration
		if dur <= 0 {
			dur = 0.05
		}
		for i, iv := range intervals {
			n.Ornaments = append(n.Ornaments, Ornament{
				Kind:      "grace_note",
				Frequency: base * iv,
				Duration:  dur,
				Velocity:  n.Velocity / 3,
				Offset:    -0.1 - float64(i)*0.05,
			})
		}
	}
	return nil
}

func applyArticulation(n *Note, name string, p *technique.ArticulationParams) {
	n.Articulation = name
	n.Duration = math.Max(0.05, n.Duration*p.DurationScale)
	n.Velocity = clampVelocity(int(float64(n.Velocity) * p.VelocityScale))
}

func (r *Renderer) applyComposite(n *Note, name string, p *technique.CompositeParams) error {
	if p.Voices != nil {
		r.addVoices(n, name, p.Voices)
	}
	if p.Cascade != nil {
		if len(n.Frequencies) == 0 {
			return fmt.Errorf("cascade needs a base frequency")
		}
		base := n.Frequencies[0]
		for i := 0; i < p.Cascade.Count; i++ {
			n.Ornaments = append(n.Ornaments, Ornament{
				Kind:      "cascade",
				Frequency: base * math.Pow(p.Cascade.FreqStep, float64(i)),
				Duration:  p.Cascade.Duration,
				Velocity:  clampVelocity(n.Velocity - i*p.Cascade.VelocityDrop),
				Offset:    float64(i) * p.Cascade.OffsetStep,
			})
		}
	}
	n.Tags = append(n.Tags, p.Tags...)
	return nil
}

// applyExpression shapes one note by its position in the track's phrase.
func (r *Renderer) applyExpression(n *Note, position, total int) {
	p := r.opts.Style.Params()
	ratio := float64(position) / float64(total)

	factor := 1.0 + r.uniform(-p.VelocityVariation, p.VelocityVariation)
	n.Velocity = clampVelocity(int(float64(n.Velocity) * factor))

	switch p.Phrasing {
	case phraseGentle:
		if ratio >= 0.2 && ratio <= 0.8 {
			n.Tags = append(n.Tags, "gentle_emphasis")
		}
	case phraseBold:
		if ratio < 0.1 || ratio > 0.9 {
			n.Tags = append(n.Tags, "bold_accent")
		}
	case phraseFloating:
		n.Tags = append(n.Tags, "ethereal")
	}

	if position%6 == 0 && p.AccentStrength > 1.0 {
		n.Tags = append(n.Tags, "accent")
		boosted := int(float64(n.Velocity) * p.AccentStrength)
		if boosted > 127 {
			boosted = 127
		}
		n.Velocity = boosted
	}

	if p.Rubato > 0 {
		shift := r.uniform(-p.Rubato, p.Rubato) * n.Duration
		n.Start = math.Max(0, n.Start+shift)
	}
}

// autoSelect builds a programme from the composition's character the way
// a performer plans a set: calm pieces get lyrical techniques, dynamic
// pieces percussive ones, harmonic pieces stacked voicings.
func (r *Renderer) autoSelect(style string) []string {
	var candidates []string
	switch {
	case strings.Contains(style, "calm") || strings.Contains(style, "meditation"):
		candidates = []string{"legato_flow", "thirds_parallel", "grace_notes"}
	case strings.Contains(style, "dynamic") || strings.Contains(style, "dance"):
		candidates = []string{"staccato_burst", "octave_doubling", "hand_crossing"}
	case strings.Contains(style, "harmonic"):
		candidates = []string{"chord_cascade", "cluster_harmony", "fifths_parallel"}
	default:
		candidates = []string{"thirds_parallel", "grace_notes", "octave_doubling"}
	}

	var eligible []string
	for _, name := range candidates {
		t, err := r.catalog.Lookup(name)
		if err != nil || !r.opts.Skill.Allows(t.MinSkill) {
			continue
		}
		eligible = append(eligible, name)
	}

	limit := r.opts.Density.AutoSelectLimit()
	count := min(limit, len(eligible))
	selected := make([]string, 0, limit)
	for _, idx := range r.rng.Perm(len(eligible))[:count] {
		selected = append(selected, eligible[idx])
	}

	if r.opts.Skill == technique.SkillSuperhuman {
		for _, name := range []string{"five_element_cascade", "petersen_graph_jump"} {
			if len(selected) >= limit {
				break
			}
			if _, err := r.catalog.Lookup(name); err == nil {
				selected = append(selected, name)
			}
		}
	}
	return selected
}

func (r *Renderer) uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}
