package perform

import "fmt"

// Style selects the global expression contour applied after techniques.
type Style int

const (
	StyleNatural Style = iota
	StyleDramatic
	StyleMechanical
	StyleEthereal
)

var styleNames = [...]string{"natural", "dramatic", "mechanical", "ethereal"}

func (s Style) String() string {
	if !s.Valid() {
		return fmt.Sprintf("style(%d)", int(s))
	}
	return styleNames[s]
}

// Valid reports whether s is a defined style.
func (s Style) Valid() bool { return s >= StyleNatural && s <= StyleEthereal }

// ParseStyle maps a config string to a Style.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return StyleNatural, fmt.Errorf("unknown expression style %q", name)
}

// Phrase shaping rules.
const (
	phraseGentle   = "gentle"
	phraseBold     = "bold"
	phraseFlat     = "flat"
	phraseFloating = "floating"
)

// StyleParams are the contour knobs for one style.
type StyleParams struct {
	VelocityVariation float64 // bounded random velocity factor
	Rubato            float64 // start-time elasticity, fraction of duration
	Phrasing          string
	AccentStrength    float64 // velocity boost on phrase-start notes
}

var styleParams = [...]StyleParams{
	StyleNatural:    {VelocityVariation: 0.15, Rubato: 0.05, Phrasing: phraseGentle, AccentStrength: 1.2},
	StyleDramatic:   {VelocityVariation: 0.4, Rubato: 0.15, Phrasing: phraseBold, AccentStrength: 1.8},
	StyleMechanical: {VelocityVariation: 0.05, Rubato: 0, Phrasing: phraseFlat, AccentStrength: 1.0},
	StyleEthereal:   {VelocityVariation: 0.25, Rubato: 0.2, Phrasing: phraseFloating, AccentStrength: 0.8},
}

// Params returns the contour knobs for the style, falling back to natural.
func (s Style) Params() StyleParams {
	if !s.Valid() {
		return styleParams[StyleNatural]
	}
	return styleParams[s]
}
