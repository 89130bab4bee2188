package technique

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/virtuoso/internal/score"
)

// formatConstraint bounds the overlay file versions this loader accepts.
const formatConstraint = ">=1.0.0 <2.0.0"

type catalogFile struct {
	FormatVersion string          `yaml:"format_version"`
	Techniques    []techniqueSpec `yaml:"techniques"`
}

type techniqueSpec struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Tracks     []string `yaml:"tracks"`
	MinSkill   string   `yaml:"min_skill"`
	Complexity float64  `yaml:"complexity"`

	Parallel     *ParallelParams     `yaml:"parallel,omitempty"`
	Ornament     *OrnamentParams     `yaml:"ornament,omitempty"`
	Articulation *ArticulationParams `yaml:"articulation,omitempty"`
	Composite    *CompositeParams    `yaml:"composite,omitempty"`
}

// Load parses a YAML overlay and merges it over the builtin catalog.
// Overlay entries replace builtins with the same name; malformed entries
// fail the whole load rather than surfacing later during rendering.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse technique file: %w", err)
	}
	if err := checkFormatVersion(file.FormatVersion); err != nil {
		return nil, err
	}

	techs := builtinTechniques()
	for _, spec := range file.Techniques {
		t, err := spec.technique()
		if err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return New(techs)
}

// LoadFile reads a technique overlay from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read technique file: %w", err)
	}
	return Load(data)
}

func checkFormatVersion(raw string) error {
	if raw == "" {
		return fmt.Errorf("technique file missing format_version")
	}
	ver, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("technique file format_version %q: %w", raw, err)
	}
	con, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return err
	}
	if !con.Check(ver) {
		return fmt.Errorf("technique file format_version %s outside supported range %s", raw, formatConstraint)
	}
	return nil
}

func (s techniqueSpec) technique() (Technique, error) {
	t := Technique{
		Name:       s.Name,
		Complexity: s.Complexity,

		Parallel:     s.Parallel,
		Ornament:     s.Ornament,
		Articulation: s.Articulation,
		Composite:    s.Composite,
	}
	switch c := Category(s.Category); c {
	case CategoryParallel, CategoryOrnament, CategoryArticulation, CategoryComposite:
		t.Category = c
	default:
		return Technique{}, fmt.Errorf("technique %q: unknown category %q", s.Name, s.Category)
	}
	for _, raw := range s.Tracks {
		kind := score.TrackKind(raw)
		if !kind.Valid() {
			return Technique{}, fmt.Errorf("technique %q: unknown track %q", s.Name, raw)
		}
		t.Tracks = append(t.Tracks, kind)
	}
	skill, err := ParseSkill(s.MinSkill)
	if err != nil {
		return Technique{}, fmt.Errorf("technique %q: %w", s.Name, err)
	}
	t.MinSkill = skill
	return t, nil
}
