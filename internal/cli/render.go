package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/audiofile"
	"github.com/satindergrewal/virtuoso/internal/render"
	"github.com/satindergrewal/virtuoso/internal/renderclient"
	"github.com/satindergrewal/virtuoso/internal/score"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// renderParams collects the flags shared by every command that renders a
// score locally.
type renderParams struct {
	Preset     string
	Mode       string
	Skill      string
	Techniques []string
	Catalog    string
	Seed       uint64
	Workers    int
}

func addRenderFlags(cmd *cobra.Command, p *renderParams) {
	cmd.Flags().StringVar(&p.Preset, "preset", "standard", "quality preset (draft|standard|high|studio)")
	cmd.Flags().StringVar(&p.Mode, "mode", "high_quality", "render mode (real_time|high_quality)")
	cmd.Flags().StringVar(&p.Skill, "skill", "advanced", "performer skill (basic|advanced|virtuoso|superhuman)")
	cmd.Flags().StringSliceVar(&p.Techniques, "techniques", nil, "explicit technique programme (default: pick per track)")
	cmd.Flags().StringVar(&p.Catalog, "catalog", "", "technique overlay file (YAML)")
	cmd.Flags().Uint64Var(&p.Seed, "seed", 1, "performance seed; equal seeds reproduce equal renders")
	cmd.Flags().IntVar(&p.Workers, "workers", 0, "synthesis workers (0 uses all CPUs)")
}

// buildRender resolves shared render flags into a renderer, its options and
// any settings adjustments worth telling the user about.
func buildRender(p *renderParams, logger *slog.Logger) (*render.Renderer, render.Options, []string, error) {
	mode, err := render.ParseMode(p.Mode)
	if err != nil {
		return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "mode", err)
	}
	quality, err := render.ParseQuality(p.Preset)
	if err != nil {
		return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "preset", err)
	}
	skill, err := technique.ParseSkill(p.Skill)
	if err != nil {
		return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "skill", err)
	}

	var catalog *technique.Catalog
	if p.Catalog != "" {
		catalog, err = technique.LoadFile(p.Catalog)
		if err != nil {
			return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "catalog", err)
		}
	}

	settings, adjustments, err := render.NewSettings(mode, quality)
	if err != nil {
		return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "settings", err)
	}
	r, err := render.New(settings, logger)
	if err != nil {
		return nil, render.Options{}, nil, WrapExitError(ExitCommandError, "settings", err)
	}

	opts := render.Options{
		Skill:      skill,
		Techniques: p.Techniques,
		Catalog:    catalog,
		Seed:       p.Seed,
		Workers:    p.Workers,
	}
	return r, opts, adjustments, nil
}

// defaultOut derives an output path from the score path, swapping the
// extension for .wav.
func defaultOut(scorePath string) string {
	base := filepath.Base(scorePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
}

// writeAudio writes a finished render to dest, picking the codec from the
// file extension.
func writeAudio(ctx context.Context, dest string, res *render.Result, bitDepth int) error {
	switch format := strings.TrimPrefix(strings.ToLower(filepath.Ext(dest)), "."); format {
	case "wav", "":
		if err := audiofile.WriteWAV(dest, res.Buffer, bitDepth); err != nil {
			return WrapExitError(ExitFailure, "write wav", err)
		}
	case "flac", "mp3", "ogg":
		if err := audiofile.Export(ctx, dest, res.Buffer, format); err != nil {
			return WrapExitError(ExitFailure, "encode "+format, err)
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported output format %q", format))
	}
	return nil
}

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	renderParams
	Out    string
	Server string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <score>",
		Short: "Render a score to an audio file",
		Long: `Render a JSON or YAML score to an audio file.

The output format follows the --out extension: .wav is written directly,
.flac, .mp3 and .ogg are encoded through ffmpeg. With --server the render
runs on a remote serve instance and the finished WAV is downloaded.

Examples:
  virtuoso render sonata.json
  virtuoso render sonata.json --preset high --skill virtuoso -o sonata.flac
  virtuoso render sonata.json --server http://localhost:8080`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output path (default: score name with .wav)")
	addRenderFlags(cmd, &opts.renderParams)
	cmd.Flags().StringVar(&opts.Server, "server", "", "base URL of a remote serve instance")

	return cmd
}

func runRender(opts *RenderOptions, scorePath string, cmd *cobra.Command) error {
	logger := setupLogger(opts.Verbose)
	ctx := commandContext(cmd)

	if opts.Server != "" {
		return renderRemote(ctx, opts, scorePath, cmd, logger)
	}

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

	dest := opts.Out
	if dest == "" {
		dest = defaultOut(scorePath)
	}
	if err := writeAudio(ctx, dest, res, r.Settings().BitDepth); err != nil {
		return err
	}

	fmt.Fprintf(out, "Rendered %q: %.1fs at peak %.2f, %d techniques, %s -> %s\n",
		comp.Title, res.Buffer.Duration(), res.Buffer.Peak(), len(res.Techniques),
		res.Elapsed.Round(time.Millisecond), dest)
	return nil
}

func renderRemote(ctx context.Context, opts *RenderOptions, scorePath string, cmd *cobra.Command, logger *slog.Logger) error {
	dest := opts.Out
	if dest == "" {
		dest = defaultOut(scorePath)
	}
	if ext := strings.ToLower(filepath.Ext(dest)); ext != ".wav" {
		return NewExitError(ExitCommandError, "remote renders download WAV; use a .wav output path")
	}
	if opts.Catalog != "" {
		return NewExitError(ExitCommandError, "catalog overlays only apply to local renders")
	}

	// Load locally first so bad scores fail before the network round trip,
	// then re-encode as JSON regardless of the source format.
	comp, err := score.LoadFile(scorePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load score", err)
	}
	data, err := json.Marshal(comp)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode score", err)
	}

	client := renderclient.NewClient(opts.Server, logger)

	healthCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.WaitForHealthy(healthCtx); err != nil {
		return WrapExitError(ExitFailure, "render server unreachable", err)
	}

	jobID, err := client.Submit(ctx, data, renderclient.SubmitOptions{
		Preset:     opts.Preset,
		Mode:       opts.Mode,
		Skill:      opts.Skill,
		Techniques: opts.Techniques,
		Seed:       &opts.Seed,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "submit render", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Submitted job %s, waiting...\n", jobID)

	job, err := client.PollUntilDone(ctx, jobID, time.Second)
	if err != nil {
		return WrapExitError(ExitFailure, "remote render", err)
	}
	for _, warn := range job.Warnings {
		fmt.Fprintln(out, "warning:", warn)
	}

	if err := client.Download(ctx, jobID, dest); err != nil {
		return WrapExitError(ExitFailure, "download result", err)
	}

	fmt.Fprintf(out, "Rendered %q remotely: %.1fs at peak %.2f -> %s\n",
		job.Score, job.Duration, job.Peak, dest)
	return nil
}
