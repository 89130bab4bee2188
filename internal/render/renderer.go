package render

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/satindergrewal/virtuoso/internal/effects"
	"github.com/satindergrewal/virtuoso/internal/perform"
	"github.com/satindergrewal/virtuoso/internal/score"
	"github.com/satindergrewal/virtuoso/internal/synth"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// Options are the per-render performance knobs layered on the settings.
type Options struct {
	Skill      technique.Skill
	Techniques []string            // explicit programme; empty auto-selects
	Seed       uint64              // drives every random draw
	Catalog    *technique.Catalog  // nil uses the built-ins
	Tone       synth.ToneGenerator // nil uses the built-in harmonic voice
	Workers    int                 // high-quality fan-out; 0 uses all CPUs
}

// Result is a finished render with everything a caller needs to write,
// stream, or inspect it.
type Result struct {
	Buffer      *synth.Buffer  `json:"-"`
	Settings    Settings       `json:"settings"`
	Stats       perform.Stats  `json:"stats"`
	Synthesis   *synth.Report  `json:"synthesis"`
	Techniques  []string       `json:"techniques,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Adjustments []string       `json:"adjustments,omitempty"`
	Incomplete  bool           `json:"incomplete,omitempty"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// Renderer drives the full pipeline: perform, flatten, synthesize,
// post-process.
type Renderer struct {
	settings    Settings
	adjustments []string
	logger      *slog.Logger
}

// New validates the settings and prepares a renderer. Mode caps are
// applied here, before anything is allocated, and reported on every
// result.
func New(settings Settings, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	adjustments := settings.normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	for _, adj := range adjustments {
		logger.Info("settings adjusted", "adjustment", adj)
	}
	return &Renderer{settings: settings, adjustments: adjustments, logger: logger}, nil
}

// Settings returns the effective settings after mode caps.
func (r *Renderer) Settings() Settings {
	return r.settings
}

// Render performs, flattens, synthesizes, and post-processes the
// composition. The context cancels synthesis between batches; a
// cancelled render still returns its partial result.
func (r *Renderer) Render(ctx context.Context, comp *score.Composition, opts Options) (*Result, error) {
	started := time.Now()
	s := r.settings

	adjustments := append([]string(nil), r.adjustments...)
	skill := opts.Skill
	if !s.Superhuman && skill == technique.SkillSuperhuman {
		skill = technique.SkillVirtuoso
		adjustments = append(adjustments,
			fmt.Sprintf("skill superhuman capped at virtuoso by the %s preset", s.Quality))
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = technique.Builtin()
	}
	density, err := technique.ParseDensity(s.Density)
	if err != nil {
		return nil, err
	}

	popts := perform.Options{
		Skill:             skill,
		Density:           density,
		Expression:        s.Expression != "",
		Techniques:        opts.Techniques,
		MaxParallelVoices: s.MaxParallelVoices,
		Seed:              opts.Seed,
	}
	if s.Expression != "" {
		style, err := perform.ParseStyle(s.Expression)
		if err != nil {
			return nil, err
		}
		popts.Style = style
	}

	perf, err := perform.NewRenderer(catalog, popts, r.logger).Render(comp)
	if err != nil {
		return nil, err
	}

	engine := synth.NewEngine(synth.Config{
		SampleRate:   s.SampleRate,
		MaxPolyphony: s.MaxPolyphony,
		Workers:      r.workers(opts),
		BatchSize:    s.BlockSize,
	}, opts.Tone, r.logger)

	buf, report, err := engine.Synthesize(ctx, synth.Flatten(perf))
	if err != nil {
		return nil, err
	}

	effects.NewChain(s.Effects).Process(buf)

	result := &Result{
		Buffer:      buf,
		Settings:    s,
		Stats:       perf.Stats(),
		Synthesis:   report,
		Techniques:  perf.Techniques,
		Warnings:    append(append([]string(nil), perf.Warnings...), report.Warnings...),
		Adjustments: adjustments,
		Incomplete:  report.Incomplete,
		Elapsed:     time.Since(started),
	}
	r.logger.Info("render finished",
		"title", comp.Title,
		"frames", buf.Frames(),
		"seconds", buf.Duration(),
		"events", report.Events,
		"dropped", report.Dropped,
		"incomplete", report.Incomplete,
		"elapsed", result.Elapsed)
	return result, nil
}

func (r *Renderer) workers(opts Options) int {
	if r.settings.Mode == ModeRealTime {
		return 1
	}
	if opts.Workers > 0 {
		return opts.Workers
	}
	return runtime.NumCPU()
}
