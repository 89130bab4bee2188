package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/render"
)

// PresetsOptions holds flags for the presets command.
type PresetsOptions struct {
	*RootOptions
}

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PresetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "presets",
		Short:         "List the render quality presets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(opts, cmd)
		},
	}

	return cmd
}

func runPresets(_ *PresetsOptions, cmd *cobra.Command) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSAMPLE RATE\tBIT DEPTH\tPOLYPHONY\tVOICES\tDENSITY\tEXPRESSION\tSUPERHUMAN")
	for _, q := range render.Qualities() {
		s, _, err := render.NewSettings(render.ModeHighQuality, q)
		if err != nil {
			return WrapExitError(ExitFailure, "preset "+string(q), err)
		}
		expression := s.Expression
		if expression == "" {
			expression = "off"
		}
		fmt.Fprintf(w, "%s\t%d Hz\t%d bit\t%d\t%d\t%s\t%s\t%v\n",
			q, s.SampleRate, s.BitDepth, s.MaxPolyphony, s.MaxParallelVoices,
			s.Density, expression, s.Superhuman)
	}
	return w.Flush()
}
