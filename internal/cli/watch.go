package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/score"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	renderParams
	Out string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <score>",
		Short: "Re-render a score whenever the file changes",
		Long: `Watch a score file and re-render it on every save.

Useful while composing: keep an audio player pointed at the output file
and hear each edit moments after saving.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output path (default: score name with .wav)")
	addRenderFlags(cmd, &opts.renderParams)

	return cmd
}

func runWatch(opts *WatchOptions, scorePath string, cmd *cobra.Command) error {
	logger := setupLogger(opts.Verbose)

	r, renderOpts, _, err := buildRender(&opts.renderParams, logger)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(scorePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve score path", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitFailure, "start watcher", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors that save via
	// rename would otherwise silently drop the watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return WrapExitError(ExitCommandError, "watch directory", err)
	}

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

	out := cmd.OutOrStdout()
	dest := opts.Out
	if dest == "" {
		dest = defaultOut(scorePath)
	}

	renderOnce := func() {
		comp, err := score.LoadFile(absPath)
		if err != nil {
			fmt.Fprintln(out, "skipping:", err)
			return
		}
		res, err := r.Render(ctx, comp, renderOpts)
		if err != nil {
			fmt.Fprintln(out, "render failed:", err)
			return
		}
		for _, warn := range res.Warnings {
			fmt.Fprintln(out, "warning:", warn)
		}
		if err := writeAudio(ctx, dest, res, r.Settings().BitDepth); err != nil {
			fmt.Fprintln(out, "write failed:", err)
			return
		}
		fmt.Fprintf(out, "%s rendered %.1fs -> %s\n",
			time.Now().Format("15:04:05"), res.Buffer.Duration(), dest)
	}

	fmt.Fprintf(out, "Watching %s. Press Ctrl-C to stop.\n", scorePath)
	renderOnce()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != absPath || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors fire several events per save; let them settle.
			debounce = time.After(300 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-debounce:
			debounce = nil
			renderOnce()
		}
	}
}
