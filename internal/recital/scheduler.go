package recital

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satindergrewal/virtuoso/internal/render"
	"github.com/satindergrewal/virtuoso/internal/stream"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

// Config tunes the recital scheduler.
type Config struct {
	// StartingProfile is the programme node the recital opens with.
	StartingProfile string
	// Quality is the render quality used for every rendition.
	Quality render.Quality
	// BufferAhead is how many renditions to keep queued on the pacer.
	BufferAhead int
	// DwellMin and DwellMax bound the seconds spent on one profile
	// before walking to an adjacent one.
	DwellMin int
	DwellMax int
}

// Status is a snapshot of the scheduler state.
type Status struct {
	CurrentProfile string  `json:"profile"`
	AutoProgramme  bool    `json:"auto_programme"`
	DwellRemaining float64 `json:"dwell_remaining"`
	QueueSize      int     `json:"queue_size"`
}

// Scheduler walks the programme graph and keeps the pacer fed with
// freshly rendered renditions.
type Scheduler struct {
	library *Library
	pacer   *stream.Pacer
	cfg     Config
	logger  *slog.Logger

	mu                sync.RWMutex
	currentProfile    string
	auto              bool
	dwellEnd          time.Time
	lastNote          string
	profileOverrideCh chan string
}

// NewScheduler creates a scheduler. A nil logger falls back to slog.Default.
func NewScheduler(library *Library, pacer *stream.Pacer, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		library:           library,
		pacer:             pacer,
		cfg:               cfg,
		logger:            logger,
		currentProfile:    cfg.StartingProfile,
		auto:              true,
		profileOverrideCh: make(chan string, 1),
	}
}

// LastNote returns the programme note of the most recent rendition.
func (s *Scheduler) LastNote() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastNote
}

// Status reports the current profile, dwell and queue state.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := time.Until(s.dwellEnd).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		CurrentProfile: s.currentProfile,
		AutoProgramme:  s.auto,
		DwellRemaining: remaining,
		QueueSize:      s.pacer.QueueSize(),
	}
}

// SetProfile requests a jump to the named profile. Non-blocking; a
// pending request is replaced only once consumed.
func (s *Scheduler) SetProfile(name string) {
	select {
	case s.profileOverrideCh <- name:
	default:
	}
}

// Skip abandons the rendition currently on air.
func (s *Scheduler) Skip() {
	s.pacer.Skip()
}

// SetAuto toggles automatic programme transitions.
func (s *Scheduler) SetAuto(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auto = enabled
	if enabled {
		s.resetDwell()
	}
}

// Run drives the recital until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.resetDwell()
	s.mu.Unlock()

	s.logger.Info("recital started", "profile", s.currentProfile)

	for {
		select {
		case <-ctx.Done():
			return
		case name := <-s.profileOverrideCh:
			if _, ok := Programme[name]; ok {
				s.mu.Lock()
				s.currentProfile = name
				s.resetDwell()
				s.mu.Unlock()
				s.logger.Info("profile set", "profile", name)
			} else {
				s.logger.Warn("unknown profile requested", "profile", name)
			}
		default:
		}

		s.mu.Lock()
		if s.auto && time.Now().After(s.dwellEnd) {
			s.transition()
		}
		s.mu.Unlock()

		if s.pacer.QueueSize() < s.cfg.BufferAhead {
			s.renderNext(ctx)
		} else {
			time.Sleep(time.Second)
		}
	}
}

func (s *Scheduler) renderNext(ctx context.Context) {
	s.mu.RLock()
	profileName := s.currentProfile
	s.mu.RUnlock()

	prof, ok := Programme[profileName]
	if !ok {
		s.logger.Error("profile missing from programme", "profile", profileName)
		time.Sleep(time.Second)
		return
	}

	comp := s.library.Next()
	if comp == nil {
		s.logger.Error("score library is empty")
		time.Sleep(time.Second)
		return
	}

	settings, _, err := render.NewSettings(render.ModeHighQuality, s.cfg.Quality)
	if err != nil {
		s.logger.Error("render settings invalid", "error", err)
		time.Sleep(time.Second)
		return
	}
	settings.Expression = prof.Style
	settings.Density = prof.Density

	r, err := render.New(settings, s.logger)
	if err != nil {
		s.logger.Error("renderer init failed", "error", err)
		time.Sleep(time.Second)
		return
	}

	skill, err := technique.ParseSkill(prof.Skill)
	if err != nil {
		s.logger.Error("profile skill invalid", "profile", profileName, "error", err)
		time.Sleep(time.Second)
		return
	}

	id := uuid.NewString()
	s.logger.Info("rendering", "score", comp.Title, "profile", profileName)

	res, err := r.Render(ctx, comp, render.Options{
		Skill: skill,
		Seed:  rand.Uint64(),
	})
	if err != nil {
		s.logger.Error("rendition failed", "score", comp.Title, "error", err)
		time.Sleep(5 * time.Second)
		return
	}

	title := RenditionTitle(profileName, id)

	s.mu.Lock()
	s.lastNote = ProgrammeNote(profileName)
	s.mu.Unlock()

	s.logger.Info("rendition ready",
		"title", title,
		"rendition", id,
		"profile", profileName,
		"elapsed", res.Elapsed,
		"warnings", len(res.Warnings))

	s.pacer.Enqueue(stream.Rendition{
		ID:      id,
		Title:   title,
		Style:   profileName,
		Samples: stream.FromBuffer(res.Buffer),
	})
}

func (s *Scheduler) transition() {
	prof, ok := Programme[s.currentProfile]
	if !ok || len(prof.Adjacent) == 0 {
		s.resetDwell()
		return
	}
	next := prof.Adjacent[rand.IntN(len(prof.Adjacent))]
	s.logger.Info("programme transition", "from", s.currentProfile, "to", next)
	s.currentProfile = next
	s.resetDwell()
}

// resetDwell picks the next transition time. Must be called with mu held.
func (s *Scheduler) resetDwell() {
	spread := s.cfg.DwellMax - s.cfg.DwellMin
	if spread <= 0 {
		spread = 1
	}
	s.dwellEnd = time.Now().Add(time.Duration(s.cfg.DwellMin+rand.IntN(spread)) * time.Second)
}
