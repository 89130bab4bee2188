package recital

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/satindergrewal/virtuoso/internal/score"
)

// Library holds the compositions available to the recital, served in rotation.
type Library struct {
	mu    sync.Mutex
	comps []*score.Composition
	next  int
}

// NewLibrary wraps already-loaded compositions.
func NewLibrary(comps ...*score.Composition) *Library {
	return &Library{comps: comps}
}

// LoadLibrary reads every score file (.json, .yaml, .yml) in dir.
func LoadLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read score dir %s: %w", dir, err)
	}

	var comps []*score.Composition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		comp, err := score.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load score %s: %w", e.Name(), err)
		}
		comps = append(comps, comp)
	}

	if len(comps) == 0 {
		return nil, fmt.Errorf("no playable scores in %s", dir)
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i].Title < comps[j].Title })
	return &Library{comps: comps}, nil
}

// Next returns the next composition in rotation, or nil for an empty library.
func (l *Library) Next() *score.Composition {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.comps) == 0 {
		return nil
	}
	c := l.comps[l.next]
	l.next = (l.next + 1) % len(l.comps)
	return c
}

// Size returns the number of compositions in the library.
func (l *Library) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.comps)
}
