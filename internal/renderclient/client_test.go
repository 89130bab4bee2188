package renderclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/satindergrewal/virtuoso/internal/server"
)

const scoreJSON = `{"title":"Client Etude","tracks":[{"kind":"melody","notes":[{"start":0,"duration":0.5,"velocity":80,"frequencies":[440]}]}]}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- WaitForHealthy ---

func TestWaitForHealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	if err := c.WaitForHealthy(context.Background()); err != nil {
		t.Fatalf("WaitForHealthy: %v", err)
	}
}

func TestWaitForHealthyCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := NewClient(ts.URL, quietLogger())
	if err := c.WaitForHealthy(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForHealthy = %v, want deadline exceeded", err)
	}
}

// --- Submit ---

func TestSubmitSendsOptions(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/render" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"job_id":"j1"}`))
	}))
	defer ts.Close()

	seed := uint64(42)
	c := NewClient(ts.URL, quietLogger())
	id, err := c.Submit(context.Background(), []byte(scoreJSON), SubmitOptions{
		Preset: "draft",
		Skill:  "virtuoso",
		Seed:   &seed,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "j1" {
		t.Errorf("job id = %q, want j1", id)
	}
	q, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if q.Get("preset") != "draft" || q.Get("skill") != "virtuoso" || q.Get("seed") != "42" {
		t.Errorf("query = %q, missing options", gotQuery)
	}
}

func TestSubmitServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"composition has no tracks"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	_, err := c.Submit(context.Background(), []byte(`{}`), SubmitOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Submit error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "composition has no tracks" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

// --- PollUntilDone ---

func TestPollUntilDone(t *testing.T) {
	var calls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"id":"j1","state":"rendering"}`))
			return
		}
		w.Write([]byte(`{"id":"j1","state":"done","score":"etude","duration":2.5,"peak":0.9}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	job, err := c.PollUntilDone(context.Background(), "j1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("PollUntilDone: %v", err)
	}
	if job.State != "done" || job.Duration != 2.5 {
		t.Errorf("job = %+v", job)
	}
	if calls.Load() < 3 {
		t.Errorf("calls = %d, want at least 3", calls.Load())
	}
}

func TestPollUntilDoneFailedJob(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"j2","state":"failed","error":"unknown technique \"warp\""}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	_, err := c.PollUntilDone(context.Background(), "j2", 10*time.Millisecond)
	if err == nil {
		t.Fatal("PollUntilDone should fail for a failed job")
	}
}

func TestPollUntilDoneUnknownJob(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown job"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	_, err := c.PollUntilDone(context.Background(), "nope", 10*time.Millisecond)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError (no endless retry on 404)", err)
	}
}

// --- Download ---

func TestDownload(t *testing.T) {
	payload := []byte("RIFFfake-wav-bytes")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/j1/wav" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write(payload)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "out.wav")
	c := NewClient(ts.URL, quietLogger())
	if err := c.Download(context.Background(), "j1", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded %q, want %q", got, payload)
	}
}

func TestDownloadNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown job"}`))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "out.wav")
	c := NewClient(ts.URL, quietLogger())
	err := c.Download(context.Background(), "nope", dest)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if _, statErr := os.Stat(dest); statErr == nil {
		t.Error("dest file should not exist after a failed download")
	}
}

// --- Against the real server ---

func TestClientAgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("renders audio")
	}

	srv := server.New(server.Options{Logger: quietLogger()})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	c := NewClient(ts.URL, quietLogger())
	ctx := context.Background()

	if err := c.WaitForHealthy(ctx); err != nil {
		t.Fatalf("WaitForHealthy: %v", err)
	}

	seed := uint64(7)
	id, err := c.Submit(ctx, []byte(scoreJSON), SubmitOptions{Preset: "draft", Seed: &seed})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job, err := c.PollUntilDone(ctx, id, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("PollUntilDone: %v", err)
	}
	if job.Score != "Client Etude" {
		t.Errorf("score = %q, want %q", job.Score, "Client Etude")
	}
	if job.Duration <= 0 {
		t.Errorf("duration = %f, want > 0", job.Duration)
	}

	dest := filepath.Join(t.TempDir(), "render.wav")
	if err := c.Download(ctx, id, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) < 44 || string(data[:4]) != "RIFF" {
		t.Errorf("downloaded file is not a wav (%d bytes)", len(data))
	}
}
