package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "virtuoso", cmd.Use)
	assert.Contains(t, cmd.Long, "recital")
	assert.NotEmpty(t, cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"render", "preview", "watch", "serve", "techniques", "presets"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)
}

func TestRenderCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	renderCmd, _, err := cmd.Find([]string{"render"})
	require.NoError(t, err)

	outFlag := renderCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)

	presetFlag := renderCmd.Flags().Lookup("preset")
	require.NotNil(t, presetFlag)
	assert.Equal(t, "standard", presetFlag.DefValue)

	seedFlag := renderCmd.Flags().Lookup("seed")
	require.NotNil(t, seedFlag)
	assert.Equal(t, "1", seedFlag.DefValue)

	serverFlag := renderCmd.Flags().Lookup("server")
	require.NotNil(t, serverFlag)
	assert.Equal(t, "", serverFlag.DefValue)
}

func TestPreviewCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	previewCmd, _, err := cmd.Find([]string{"preview"})
	require.NoError(t, err)

	skillFlag := previewCmd.Flags().Lookup("skill")
	require.NotNil(t, skillFlag)
	assert.Equal(t, "advanced", skillFlag.DefValue)

	// Preview plays instead of writing, so it has no output flag.
	assert.Nil(t, previewCmd.Flags().Lookup("out"))
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	require.NotNil(t, watchCmd.Flags().Lookup("out"))
	require.NotNil(t, watchCmd.Flags().Lookup("catalog"))
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	portFlag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, portFlag)
	assert.Equal(t, "p", portFlag.Shorthand)
	assert.Equal(t, "0", portFlag.DefValue)
}

func TestRenderRequiresScoreArg(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"render"})

	err := cmd.Execute()
	require.Error(t, err)
}
