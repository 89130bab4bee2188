package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/audiofile"
	"github.com/satindergrewal/virtuoso/internal/score"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	renderParams
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <score>",
		Short: "Render a score and play it through the speakers",
		Long: `Render a JSON or YAML score and play the result immediately.

Playback runs until the rendition ends or Ctrl-C interrupts it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args[0], cmd)
		},
	}

	addRenderFlags(cmd, &opts.renderParams)

	return cmd
}

func runPreview(opts *PreviewOptions, scorePath string, cmd *cobra.Command) error {
	logger := setupLogger(opts.Verbose)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	comp, err := score.LoadFile(scorePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load score", err)
	}

	r, renderOpts, adjustments, err := buildRender(&opts.renderParams, logger)
	if err != nil {
		return err
	}

	res, err := r.Render(ctx, comp, renderOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "render", err)
	}

	out := cmd.OutOrStdout()
	for _, adj := range append(adjustments, res.Adjustments...) {
		fmt.Fprintln(out, "adjusted:", adj)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(out, "warning:", warn)
	}
	fmt.Fprintf(out, "Playing %q (%.1fs)... Press Ctrl-C to stop.\n", comp.Title, res.Buffer.Duration())

	if err := audiofile.Play(ctx, res.Buffer); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "playback", err)
	}
	return nil
}
