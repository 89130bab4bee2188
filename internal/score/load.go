package score

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load parses a composition from JSON or YAML bytes and normalizes it.
// Pass the source name (usually a filename) so errors carry context; the
// extension picks the format, defaulting to JSON when there is none.
func Load(data []byte, name string) (*Composition, error) {
	var c Composition
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	if len(c.Tracks) == 0 {
		return nil, fmt.Errorf("%s: composition has no tracks", name)
	}
	if err := c.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if c.Title == "" {
		c.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return &c, nil
}

// LoadFile reads and parses a composition file.
func LoadFile(path string) (*Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}
	return Load(data, path)
}
