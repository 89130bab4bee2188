package technique

import "fmt"

// Density controls how often and how richly techniques are applied.
type Density int

const (
	DensitySparse Density = iota
	DensityModerate
	DensityRich
	DensityExtreme
)

var densityNames = [...]string{"sparse", "moderate", "rich", "extreme"}

func (d Density) String() string {
	if d < DensitySparse || d > DensityExtreme {
		return fmt.Sprintf("density(%d)", int(d))
	}
	return densityNames[d]
}

// Valid reports whether d is a defined tier.
func (d Density) Valid() bool { return d >= DensitySparse && d <= DensityExtreme }

// ParseDensity maps a config string to a Density.
func ParseDensity(name string) (Density, error) {
	for i, n := range densityNames {
		if n == name {
			return Density(i), nil
		}
	}
	return DensityModerate, fmt.Errorf("unknown density tier %q", name)
}

// DensityParams are the per-tier application knobs.
type DensityParams struct {
	NoteProbability     float64 // chance a note receives a technique at all
	MaxParallelVoices   int     // tier cap on parallel voices per note
	OrnamentProbability float64 // chance an ornament technique actually fires
	ComplexityCeiling   float64 // advisory cap used by auto-selection
}

var densityParams = [...]DensityParams{
	DensitySparse:   {NoteProbability: 0.2, MaxParallelVoices: 2, OrnamentProbability: 0.1, ComplexityCeiling: 2.0},
	DensityModerate: {NoteProbability: 0.4, MaxParallelVoices: 3, OrnamentProbability: 0.25, ComplexityCeiling: 3.0},
	DensityRich:     {NoteProbability: 0.7, MaxParallelVoices: 5, OrnamentProbability: 0.5, ComplexityCeiling: 4.0},
	DensityExtreme:  {NoteProbability: 0.9, MaxParallelVoices: 8, OrnamentProbability: 0.8, ComplexityCeiling: 5.0},
}

// Params returns the knobs for the tier, falling back to moderate for
// out-of-range values.
func (d Density) Params() DensityParams {
	if !d.Valid() {
		return densityParams[DensityModerate]
	}
	return densityParams[d]
}

// AutoSelectLimit is how many techniques auto-selection draws for the tier.
func (d Density) AutoSelectLimit() int {
	switch d {
	case DensitySparse:
		return 2
	case DensityRich:
		return 4
	case DensityExtreme:
		return 6
	default:
		return 3
	}
}
