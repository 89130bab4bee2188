package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechniquesCommand(t *testing.T) {
	out, err := execute(t, "techniques")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "thirds_parallel")
	assert.Contains(t, out, "petersen_graph_jump")
	assert.Contains(t, out, "superhuman")
}

func TestTechniquesCommandWithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	overlay := `format_version: "1.0.0"
techniques:
  - name: "mirror_echo"
    category: "ornament"
    tracks: ["melody"]
    min_skill: "virtuoso"
    complexity: 0.7
    ornament:
      pattern: "leading"
      intervals: [0.5]
      duration: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	out, err := execute(t, "techniques", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mirror_echo")
	assert.Contains(t, out, "thirds_parallel")
}

func TestTechniquesCommandBadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("techniques: []\n"), 0o644))

	_, err := execute(t, "techniques", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format_version")
}
