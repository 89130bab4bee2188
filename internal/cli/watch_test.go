package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fi, err := os.Stat(path); err == nil && fi.Size() > 44 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("file %s did not appear within %s", path, timeout)
}

func TestWatchCommandRendersOnChange(t *testing.T) {
	if testing.Short() {
		t.Skip("renders audio repeatedly")
	}
	dir := t.TempDir()
	scorePath := writeScore(t, dir)
	outPath := filepath.Join(dir, "etude.wav")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", scorePath, "--preset", "draft", "-o", outPath})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	// Initial render happens before any file event.
	waitForFile(t, outPath, 10*time.Second)

	require.NoError(t, os.Remove(outPath))
	require.NoError(t, os.WriteFile(scorePath, []byte(scoreJSON), 0o644))
	waitForFile(t, outPath, 10*time.Second)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCommandMissingDir(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "watch", filepath.Join(dir, "absent", "etude.json"))
	require.Error(t, err)
	require.Equal(t, ExitCommandError, GetExitCode(err))
}
