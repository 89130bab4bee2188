package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/technique"
)

// TechniquesOptions holds flags for the techniques command.
type TechniquesOptions struct {
	*RootOptions
	Catalog string
}

// NewTechniquesCommand creates the techniques command.
func NewTechniquesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TechniquesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "techniques",
		Short:         "List the available performance techniques",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTechniques(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "technique overlay file (YAML)")

	return cmd
}

func runTechniques(opts *TechniquesOptions, cmd *cobra.Command) error {
	catalog := technique.Builtin()
	if opts.Catalog != "" {
		var err error
		catalog, err = technique.LoadFile(opts.Catalog)
		if err != nil {
			return WrapExitError(ExitCommandError, "catalog", err)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tTRACKS\tMIN SKILL\tCOMPLEXITY")
	for _, name := range catalog.Names() {
		t, err := catalog.Lookup(name)
		if err != nil {
			continue
		}
		tracks := make([]string, len(t.Tracks))
		for i, kind := range t.Tracks {
			tracks[i] = string(kind)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n",
			t.Name, t.Category, strings.Join(tracks, ","), t.MinSkill, t.Complexity)
	}
	return w.Flush()
}
