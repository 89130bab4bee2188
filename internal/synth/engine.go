package synth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	tailSeconds      = 1
	defaultBatchSize = 32
)

// Config sizes the engine.
type Config struct {
	SampleRate   int
	MaxPolyphony int // 0 means uncapped
	Workers      int // goroutines for synthesis and mixing, min 1
	BatchSize    int // events per cancellation check
}

// Engine turns flat sound events into a mixed stereo buffer.
type Engine struct {
	cfg    Config
	tone   ToneGenerator
	logger *slog.Logger
}

// NewEngine builds an engine. A nil tone generator selects the built-in
// harmonic model, a nil logger selects slog.Default().
func NewEngine(cfg Config, tone ToneGenerator, logger *slog.Logger) *Engine {
	if tone == nil {
		tone = HarmonicTone{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Engine{cfg: cfg, tone: tone, logger: logger}
}

// Report describes what a synthesis pass actually did.
type Report struct {
	Events     int      `json:"events"`
	Mixed      int      `json:"mixed"`
	Dropped    int      `json:"dropped,omitempty"` // lost to voice stealing
	Skipped    int      `json:"skipped,omitempty"` // unplayable events
	Incomplete bool     `json:"incomplete,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Synthesize renders the events into a fresh buffer sized for the latest
// event end plus a one second tail. Unplayable events are skipped with a
// warning, excess polyphony is resolved by stealing the quietest voices,
// and cancellation mid-render returns the partial mix tagged incomplete.
func (e *Engine) Synthesize(ctx context.Context, events []SoundEvent) (*Buffer, *Report, error) {
	if e.cfg.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("sample rate %d is not positive", e.cfg.SampleRate)
	}
	report := &Report{Events: len(events)}

	valid := make([]SoundEvent, 0, len(events))
	for _, ev := range events {
		if ev.Frequency <= 0 || ev.Duration <= 0 {
			report.Skipped++
			msg := fmt.Sprintf("skipping unplayable %s event: frequency %.2f Hz, duration %.3fs", ev.Role, ev.Frequency, ev.Duration)
			report.Warnings = append(report.Warnings, msg)
			e.logger.Warn("unplayable event skipped",
				"role", string(ev.Role),
				"frequency", ev.Frequency,
				"duration", ev.Duration)
			continue
		}
		valid = append(valid, ev)
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	kept, dropped := selectVoices(valid, e.cfg.MaxPolyphony)
	report.Dropped = dropped
	if dropped > 0 {
		e.logger.Info("voice stealing engaged", "dropped", dropped, "max_polyphony", e.cfg.MaxPolyphony)
	}

	buf := NewBuffer(e.cfg.SampleRate, e.frameCount(valid))
	waves := e.renderWaves(ctx, kept, report)
	report.Mixed = e.mix(buf, kept, waves)
	return buf, report, nil
}

// frameCount sizes the buffer from the latest event end plus the tail.
// Voice stealing never shortens the buffer.
func (e *Engine) frameCount(events []SoundEvent) int {
	end := 0.0
	for _, ev := range events {
		if t := ev.End(); t > end {
			end = t
		}
	}
	return int(math.Ceil(end*float64(e.cfg.SampleRate))) + tailSeconds*e.cfg.SampleRate
}

// renderWaves synthesizes each event's mono waveform, fanning out across
// workers in batches. Waves for failed or cancelled events stay nil.
func (e *Engine) renderWaves(ctx context.Context, events []SoundEvent, report *Report) [][]float64 {
	waves := make([][]float64, len(events))
	errs := make([]error, len(events))

	if e.cfg.Workers == 1 {
		for lo := 0; lo < len(events); lo += e.cfg.BatchSize {
			if ctx.Err() != nil {
				report.Incomplete = true
				break
			}
			hi := min(lo+e.cfg.BatchSize, len(events))
			for i := lo; i < hi; i++ {
				waves[i], errs[i] = e.renderWave(events[i])
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Workers)
		for lo := 0; lo < len(events); lo += e.cfg.BatchSize {
			hi := min(lo+e.cfg.BatchSize, len(events))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				for i := lo; i < hi; i++ {
					waves[i], errs[i] = e.renderWave(events[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			report.Incomplete = true
		}
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		if waves[i] != nil {
			msg := fmt.Sprintf("tone generator failed for %.2f Hz at %.3fs, using built-in voice: %v", events[i].Frequency, events[i].Start, err)
			report.Warnings = append(report.Warnings, msg)
			e.logger.Warn("tone generator fell back",
				"frequency", events[i].Frequency,
				"start", events[i].Start,
				"error", err)
			continue
		}
		msg := fmt.Sprintf("tone generation failed for %.2f Hz at %.3fs: %v", events[i].Frequency, events[i].Start, err)
		report.Warnings = append(report.Warnings, msg)
		e.logger.Warn("tone generation failed",
			"frequency", events[i].Frequency,
			"start", events[i].Start,
			"error", err)
	}
	return waves
}

// renderWave synthesizes one event's waveform. A failing delegate falls
// back to the built-in voice; both return values are set when the
// fallback rescued the event.
func (e *Engine) renderWave(ev SoundEvent) ([]float64, error) {
	wave, err := e.tone.RenderTone(ev.Frequency, ev.Duration, ev.Velocity, e.cfg.SampleRate)
	if err == nil {
		return wave, nil
	}
	if _, builtin := e.tone.(HarmonicTone); builtin {
		return nil, err
	}
	fallback, ferr := HarmonicTone{}.RenderTone(ev.Frequency, ev.Duration, ev.Velocity, e.cfg.SampleRate)
	if ferr != nil {
		return nil, err
	}
	return fallback, err
}

type span struct {
	start int
	wave  []float64
}

// mix adds every wave into both channels, truncating at the buffer end.
// Workers own disjoint frame ranges and each range applies events in the
// same order, so the output does not depend on the worker count.
func (e *Engine) mix(buf *Buffer, events []SoundEvent, waves [][]float64) int {
	frames := buf.Frames()
	spans := make([]span, 0, len(events))
	for i, ev := range events {
		if waves[i] == nil {
			continue
		}
		start := int(ev.Start * float64(buf.SampleRate))
		if start >= frames {
			continue
		}
		spans = append(spans, span{start: start, wave: waves[i]})
	}

	if e.cfg.Workers == 1 || frames == 0 {
		mixRange(buf, spans, 0, frames)
		return len(spans)
	}

	seg := (frames + e.cfg.Workers - 1) / e.cfg.Workers
	var wg sync.WaitGroup
	for lo := 0; lo < frames; lo += seg {
		hi := min(lo+seg, frames)
		wg.Add(1)
		go func() {
			defer wg.Done()
			mixRange(buf, spans, lo, hi)
		}()
	}
	wg.Wait()
	return len(spans)
}

func mixRange(buf *Buffer, spans []span, lo, hi int) {
	for _, s := range spans {
		from := max(s.start, lo)
		to := min(s.start+len(s.wave), hi)
		for f := from; f < to; f++ {
			v := s.wave[f-s.start]
			buf.Samples[2*f] += v
			buf.Samples[2*f+1] += v
		}
	}
}

// selectVoices enforces the polyphony cap with greedy stealing: when the
// cap is hit, the quietest active voice loses, louder newcomers steal,
// and on equal velocity the earlier start survives.
func selectVoices(events []SoundEvent, maxPolyphony int) ([]SoundEvent, int) {
	if maxPolyphony <= 0 || len(events) <= maxPolyphony {
		return events, 0
	}
	rejected := make([]bool, len(events))
	active := make([]int, 0, maxPolyphony)
	dropped := 0
	for i, ev := range events {
		live := active[:0]
		for _, a := range active {
			if events[a].End() > ev.Start {
				live = append(live, a)
			}
		}
		active = live

		if len(active) < maxPolyphony {
			active = append(active, i)
			continue
		}
		w := weakest(events, active)
		if ev.Velocity > events[active[w]].Velocity {
			rejected[active[w]] = true
			active[w] = i
		} else {
			rejected[i] = true
		}
		dropped++
	}

	kept := make([]SoundEvent, 0, len(events)-dropped)
	for i, ev := range events {
		if !rejected[i] {
			kept = append(kept, ev)
		}
	}
	return kept, dropped
}

// weakest picks the active voice to steal first: lowest velocity, then
// latest start, then latest arrival.
func weakest(events []SoundEvent, active []int) int {
	w := 0
	for j := 1; j < len(active); j++ {
		a, b := events[active[j]], events[active[w]]
		switch {
		case a.Velocity != b.Velocity:
			if a.Velocity < b.Velocity {
				w = j
			}
		case a.Start != b.Start:
			if a.Start > b.Start {
				w = j
			}
		case active[j] > active[w]:
			w = j
		}
	}
	return w
}
