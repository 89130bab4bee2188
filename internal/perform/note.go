package perform

import (
	"strings"

	"github.com/satindergrewal/virtuoso/internal/score"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// ParallelVoice is one interval voice stacked on a primary note.
type ParallelVoice struct {
	Ratio    float64 // frequency multiplier relative to the primary
	Velocity float64 // velocity scale factor
	Offset   float64 // start delay in seconds
	Label    string
}

// Ornament is a short decorative note placed relative to its parent.
// A negative offset leads the parent's attack.
type Ornament struct {
	Kind      string // trill, grace_note, cascade
	Frequency float64
	Duration  float64
	Velocity  int
	Offset    float64
}

// Note wraps one input note with the embellishments applied to it.
// Immutable once the renderer emits it.
type Note struct {
	Track        score.TrackKind
	Start        float64
	Duration     float64
	Velocity     int
	Frequencies  []float64 // chord tones; index 0 is the primary
	Articulation string
	Parallels    []ParallelVoice
	Ornaments    []Ornament
	Tags         []string
}

// Voices is the simultaneous voice count this note contributes on its own.
func (n Note) Voices() int { return 1 + len(n.Parallels) }

// Special reports whether the note carries a signature-technique mark.
func (n Note) Special() bool {
	for _, tag := range n.Tags {
		if strings.Contains(tag, "special") {
			return true
		}
	}
	return false
}

// Performance is the embellished composition, ready for flattening.
type Performance struct {
	Title      string
	Skill      technique.Skill
	Techniques []string // resolved technique names the renderer drew on
	Notes      []Note
	MaxVoices  int     // highest per-note voice count
	Complexity float64 // mean per-note complexity
	Warnings   []string
}

// Stats summarizes the embellishment of a rendered performance.
type Stats struct {
	Notes          int            `json:"notes"`
	ParallelVoices int            `json:"parallel_voices"`
	Ornaments      int            `json:"ornaments"`
	SpecialEffects int            `json:"special_effects"`
	MaxVoices      int            `json:"max_voices"`
	Complexity     float64        `json:"complexity"`
	Articulations  map[string]int `json:"articulations,omitempty"`
}

// Stats computes aggregate counts across the performance.
func (p *Performance) Stats() Stats {
	s := Stats{
		Notes:         len(p.Notes),
		MaxVoices:     p.MaxVoices,
		Complexity:    p.Complexity,
		Articulations: make(map[string]int),
	}
	for _, n := range p.Notes {
		s.ParallelVoices += len(n.Parallels)
		s.Ornaments += len(n.Ornaments)
		if n.Special() {
			s.SpecialEffects++
		}
		if n.Articulation != "" && n.Articulation != "normal" {
			s.Articulations[n.Articulation]++
		}
	}
	return s
}

func maxVoices(notes []Note) int {
	most := 0
	for _, n := range notes {
		if v := n.Voices(); v > most {
			most = v
		}
	}
	return most
}

func complexityScore(notes []Note) float64 {
	if len(notes) == 0 {
		return 0
	}
	total := 0.0
	for _, n := range notes {
		c := 1.0 + 0.5*float64(len(n.Parallels)) + 0.3*float64(len(n.Ornaments))
		if n.Special() {
			c += 1.0
		}
		total += c
	}
	return total / float64(len(notes))
}
