package recital

import "sort"

// Profile is a node in the interpretation programme: a named pairing of
// expression style, technique density, and performer skill.
type Profile struct {
	Name     string
	Style    string // expression style for the performance pass
	Density  string // technique density tier
	Skill    string // performer skill ceiling
	Adjacent []string
}

// Programme maps profile names to their graph nodes with adjacency edges.
// Transitions only follow edges -- the character drifts rather than jumps.
var Programme = map[string]*Profile{
	"intimate": {
		Name:     "intimate",
		Style:    "natural",
		Density:  "sparse",
		Skill:    "basic",
		Adjacent: []string{"poised", "drifting", "austere"},
	},
	"poised": {
		Name:     "poised",
		Style:    "natural",
		Density:  "moderate",
		Skill:    "advanced",
		Adjacent: []string{"intimate", "clockwork", "filigree", "weightless"},
	},
	"austere": {
		Name:     "austere",
		Style:    "mechanical",
		Density:  "sparse",
		Skill:    "basic",
		Adjacent: []string{"intimate", "clockwork"},
	},
	"clockwork": {
		Name:     "clockwork",
		Style:    "mechanical",
		Density:  "moderate",
		Skill:    "advanced",
		Adjacent: []string{"austere", "poised", "overdrive"},
	},
	"drifting": {
		Name:     "drifting",
		Style:    "ethereal",
		Density:  "sparse",
		Skill:    "advanced",
		Adjacent: []string{"intimate", "weightless"},
	},
	"weightless": {
		Name:     "weightless",
		Style:    "ethereal",
		Density:  "moderate",
		Skill:    "virtuoso",
		Adjacent: []string{"drifting", "poised", "luminous"},
	},
	"luminous": {
		Name:     "luminous",
		Style:    "ethereal",
		Density:  "rich",
		Skill:    "virtuoso",
		Adjacent: []string{"weightless", "filigree", "stormy"},
	},
	"filigree": {
		Name:     "filigree",
		Style:    "natural",
		Density:  "rich",
		Skill:    "virtuoso",
		Adjacent: []string{"poised", "luminous", "stormy"},
	},
	"stormy": {
		Name:     "stormy",
		Style:    "dramatic",
		Density:  "rich",
		Skill:    "virtuoso",
		Adjacent: []string{"luminous", "filigree", "thunderous", "blazing"},
	},
	"blazing": {
		Name:     "blazing",
		Style:    "dramatic",
		Density:  "rich",
		Skill:    "superhuman",
		Adjacent: []string{"stormy", "thunderous", "overdrive"},
	},
	"thunderous": {
		Name:     "thunderous",
		Style:    "dramatic",
		Density:  "extreme",
		Skill:    "superhuman",
		Adjacent: []string{"stormy", "blazing", "overdrive"},
	},
	"overdrive": {
		Name:     "overdrive",
		Style:    "mechanical",
		Density:  "extreme",
		Skill:    "superhuman",
		Adjacent: []string{"clockwork", "blazing", "thunderous"},
	},
}

// ProfileNames returns all profile names in the programme, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(Programme))
	for name := range Programme {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidProfile checks if a profile exists in the programme.
func IsValidProfile(name string) bool {
	_, ok := Programme[name]
	return ok
}
