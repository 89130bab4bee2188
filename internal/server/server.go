package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/satindergrewal/virtuoso/internal/audiofile"
	"github.com/satindergrewal/virtuoso/internal/recital"
	"github.com/satindergrewal/virtuoso/internal/render"
	"github.com/satindergrewal/virtuoso/internal/score"
	"github.com/satindergrewal/virtuoso/internal/stream"
	"github.com/satindergrewal/virtuoso/internal/technique"
)

const maxScoreBytes = 10 << 20

// Server exposes the render job API and the live recital endpoints.
type Server struct {
	jobs    *JobManager
	history *HistoryStore
	sched   *recital.Scheduler
	pacer   *stream.Pacer
	cast    *stream.Broadcaster
	mp3     *stream.HTTPHandler
	rtc     *stream.WebRTCHandler
	logger  *slog.Logger
}

// Options wires the server to the running recital. All fields are
// optional: without a broadcaster the stream endpoints are not mounted,
// without a history store nothing is persisted.
type Options struct {
	Scheduler   *recital.Scheduler
	Pacer       *stream.Pacer
	Broadcaster *stream.Broadcaster
	History     *HistoryStore
	Logger      *slog.Logger
}

// New assembles the server and its stream handlers.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		jobs:    NewJobManager(),
		history: opts.History,
		sched:   opts.Scheduler,
		pacer:   opts.Pacer,
		cast:    opts.Broadcaster,
		logger:  logger,
	}
	if opts.Broadcaster != nil {
		s.mp3 = stream.NewHTTPHandler(opts.Broadcaster, logger)
		s.rtc = stream.NewWebRTCHandler(opts.Broadcaster, logger)
	}
	return s
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Get("/jobs", s.handleHistory)
		r.Get("/jobs/{id}", s.handleJob)
		r.Get("/jobs/{id}/wav", s.handleJobWAV)
		r.Get("/status", s.handleStatus)
		r.Post("/style", s.handleStyle)
		r.Post("/skip", s.handleSkip)
	})
	if s.mp3 != nil {
		r.Handle("/stream", s.mp3)
		r.Handle("/webrtc/offer", s.rtc)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	comp, err := readScore(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q := r.URL.Query()
	mode := render.ModeHighQuality
	if v := q.Get("mode"); v != "" {
		if mode, err = render.ParseMode(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	quality := render.QualityStandard
	if v := q.Get("preset"); v != "" {
		if quality, err = render.ParseQuality(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	skill := technique.SkillAdvanced
	if v := q.Get("skill"); v != "" {
		if skill, err = technique.ParseSkill(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	seed := rand.Uint64()
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad seed %q", v))
			return
		}
	}
	var techniques []string
	if v := q.Get("techniques"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				techniques = append(techniques, name)
			}
		}
	}

	settings, adjustments, err := render.NewSettings(mode, quality)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := s.jobs.Create(comp.Title, string(quality), string(mode), seed, adjustments)
	go s.renderJob(id, comp, settings, render.Options{
		Skill:      skill,
		Techniques: techniques,
		Seed:       seed,
	})

	s.logger.Info("render job accepted", "job", id, "score", comp.Title, "preset", quality, "mode", mode)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) renderJob(id string, comp *score.Composition, settings render.Settings, opts render.Options) {
	s.jobs.start(id)

	rd, err := render.New(settings, s.logger)
	if err != nil {
		s.jobs.fail(id, err)
		return
	}
	res, err := rd.Render(context.Background(), comp, opts)
	if err != nil {
		s.logger.Error("render job failed", "job", id, "error", err)
		s.jobs.fail(id, err)
		return
	}

	job, err := s.jobs.finish(id, res, rd.Settings().BitDepth)
	if err != nil {
		s.logger.Error("finish render job", "job", id, "error", err)
		return
	}
	if s.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.Record(ctx, job); err != nil {
			s.logger.Error("history record failed", "job", id, "error", err)
		}
	}
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrJobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobWAV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	buf, bitDepth, err := s.jobs.Buffer(id)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrJobNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, ErrAudioExpired) {
			status = http.StatusGone
		}
		writeError(w, status, err)
		return
	}

	path := filepath.Join(os.TempDir(), "virtuoso-"+id+".wav")
	if err := audiofile.WriteWAV(path, buf, bitDepth); err != nil {
		s.logger.Error("wav encode failed", "job", id, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("wav encode failed"))
		return
	}
	defer os.Remove(path)
	http.ServeFile(w, r, path)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []HistoryEntry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type statusResponse struct {
	Recital   *recital.Status      `json:"recital,omitempty"`
	Now       stream.RenditionInfo `json:"now"`
	Position  float64              `json:"position"`
	Duration  float64              `json:"duration"`
	Note      string               `json:"programme_note,omitempty"`
	Listeners int                  `json:"listeners"`
	Peers     int                  `json:"peers"`
	Dropped   uint64               `json:"dropped_frames"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	if s.sched != nil {
		st := s.sched.Status()
		resp.Recital = &st
		resp.Note = s.sched.LastNote()
	}
	if s.pacer != nil {
		now, pos, dur := s.pacer.Status()
		resp.Now = now
		resp.Position = pos.Seconds()
		resp.Duration = dur.Seconds()
	}
	if s.cast != nil {
		resp.Listeners = s.cast.ListenerCount()
		resp.Dropped = s.cast.Dropped()
	}
	if s.rtc != nil {
		resp.Peers = s.rtc.PeerCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("recital not running"))
		return
	}
	var req struct {
		Profile string `json:"profile"`
		Auto    *bool  `json:"auto,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}
	if req.Auto != nil {
		s.sched.SetAuto(*req.Auto)
	}
	if req.Profile != "" {
		if !recital.IsValidProfile(req.Profile) {
			writeError(w, http.StatusBadRequest,
				fmt.Errorf("unknown profile %q (choose from %s)", req.Profile, strings.Join(recital.ProfileNames(), ", ")))
			return
		}
		s.sched.SetProfile(req.Profile)
	}
	writeJSON(w, http.StatusOK, s.sched.Status())
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("recital not running"))
		return
	}
	s.sched.Skip()
	writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
}

func readScore(r *http.Request) (*score.Composition, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxScoreBytes); err != nil {
			return nil, fmt.Errorf("parse upload: %w", err)
		}
		f, hdr, err := r.FormFile("score")
		if err != nil {
			return nil, fmt.Errorf("missing score file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxScoreBytes))
		if err != nil {
			return nil, fmt.Errorf("read score file: %w", err)
		}
		return score.Load(data, hdr.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxScoreBytes))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return score.Load(data, "score.json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
