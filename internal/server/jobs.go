package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satindergrewal/virtuoso/internal/render"
	"github.com/satindergrewal/virtuoso/internal/synth"
)

// JobState tracks a render job through its life.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRendering JobState = "rendering"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
)

var (
	ErrJobNotFound  = errors.New("unknown job")
	ErrJobNotDone   = errors.New("job not finished")
	ErrAudioExpired = errors.New("job audio expired")
)

// Job is the API view of one render request.
type Job struct {
	ID          string    `json:"id"`
	State       JobState  `json:"state"`
	Score       string    `json:"score"`
	Preset      string    `json:"preset"`
	Mode        string    `json:"mode"`
	Seed        uint64    `json:"seed"`
	Duration    float64   `json:"duration,omitempty"`
	Peak        float64   `json:"peak,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	Adjustments []string  `json:"adjustments,omitempty"`
	Incomplete  bool      `json:"incomplete,omitempty"`
	Error       string    `json:"error,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type jobEntry struct {
	job      Job
	buf      *synth.Buffer
	bitDepth int
}

// Raw PCM is large; only the most recent finished renders stay downloadable.
const maxHeldBuffers = 8

// JobManager tracks render jobs and holds finished buffers for download.
type JobManager struct {
	mu       sync.RWMutex
	entries  map[string]*jobEntry
	finished []string
}

func NewJobManager() *JobManager {
	return &JobManager{entries: make(map[string]*jobEntry)}
}

// Create registers a pending job and returns its ID.
func (m *JobManager) Create(title, preset, mode string, seed uint64, adjustments []string) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &jobEntry{job: Job{
		ID:          id,
		State:       JobPending,
		Score:       title,
		Preset:      preset,
		Mode:        mode,
		Seed:        seed,
		Adjustments: adjustments,
		CreatedAt:   time.Now().UTC(),
	}}
	return id
}

func (m *JobManager) start(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.job.State = JobRendering
	}
}

func (m *JobManager) finish(id string, res *render.Result, bitDepth int) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	e.job.State = JobDone
	e.job.Duration = res.Buffer.Duration()
	e.job.Peak = res.Buffer.Peak()
	e.job.Warnings = res.Warnings
	e.job.Adjustments = append(e.job.Adjustments, res.Adjustments...)
	e.job.Incomplete = res.Incomplete
	e.job.ElapsedMS = res.Elapsed.Milliseconds()
	e.buf = res.Buffer
	e.bitDepth = bitDepth

	m.finished = append(m.finished, id)
	if len(m.finished) > maxHeldBuffers {
		old := m.finished[0]
		m.finished = m.finished[1:]
		if oe, ok := m.entries[old]; ok {
			oe.buf = nil
		}
	}
	return e.job, nil
}

func (m *JobManager) fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.job.State = JobFailed
		e.job.Error = err.Error()
	}
}

// Get returns a snapshot of the job.
func (m *JobManager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// Buffer returns the rendered audio of a finished job.
func (m *JobManager) Buffer(id string) (*synth.Buffer, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if e.job.State != JobDone {
		return nil, 0, fmt.Errorf("%w: %s is %s", ErrJobNotDone, id, e.job.State)
	}
	if e.buf == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrAudioExpired, id)
	}
	return e.buf, e.bitDepth, nil
}
