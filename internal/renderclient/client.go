package renderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client talks to the render job API of a running serve instance.
type Client struct {
	baseURL string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient creates a render API client. A nil logger falls back to
// slog.Default.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitOptions select how the server renders the submitted score.
type SubmitOptions struct {
	Preset     string
	Mode       string
	Skill      string
	Techniques []string
	Seed       *uint64
}

func (o SubmitOptions) query() url.Values {
	q := url.Values{}
	if o.Preset != "" {
		q.Set("preset", o.Preset)
	}
	if o.Mode != "" {
		q.Set("mode", o.Mode)
	}
	if o.Skill != "" {
		q.Set("skill", o.Skill)
	}
	if len(o.Techniques) > 0 {
		q.Set("techniques", strings.Join(o.Techniques, ","))
	}
	if o.Seed != nil {
		q.Set("seed", strconv.FormatUint(*o.Seed, 10))
	}
	return q
}

// JobStatus mirrors the server's job JSON.
type JobStatus struct {
	ID        string   `json:"id"`
	State     string   `json:"state"`
	Score     string   `json:"score"`
	Duration  float64  `json:"duration"`
	Peak      float64  `json:"peak"`
	Warnings  []string `json:"warnings"`
	Error     string   `json:"error"`
	ElapsedMS int64    `json:"elapsed_ms"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// WaitForHealthy blocks until the server responds to health checks.
func (c *Client) WaitForHealthy(ctx context.Context) error {
	c.logger.Info("waiting for render server", "url", c.baseURL)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
		if err != nil {
			return fmt.Errorf("create health request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			c.logger.Info("render server is healthy")
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Info("render server not ready, retrying in 5s")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

// Submit posts a score (JSON bytes) and returns the job ID.
func (c *Client) Submit(ctx context.Context, scoreData []byte, opts SubmitOptions) (string, error) {
	u := c.baseURL + "/api/render"
	if q := opts.query(); len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(scoreData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit render: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", apiError(resp)
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.JobID == "" {
		return "", errors.New("server returned no job id")
	}
	return result.JobID, nil
}

// Job fetches the current status of one job.
func (c *Client) Job(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("query job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, apiError(resp)
	}
	var job JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return JobStatus{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

// PollUntilDone polls until the job finishes, returning its final status.
// Transport hiccups are retried; an answer from the server is final.
func (c *Client) PollUntilDone(ctx context.Context, jobID string, interval time.Duration) (JobStatus, error) {
	if interval <= 0 {
		interval = time.Second
	}
	for {
		job, err := c.Job(ctx, jobID)
		switch {
		case err == nil:
			switch job.State {
			case "done":
				return job, nil
			case "failed":
				return job, fmt.Errorf("render failed for job %s: %s", jobID, job.Error)
			}
		case errors.As(err, new(*APIError)):
			return JobStatus{}, err
		case ctx.Err() != nil:
			return JobStatus{}, ctx.Err()
		default:
			c.logger.Warn("poll failed, retrying", "job", jobID, "error", err)
		}

		select {
		case <-ctx.Done():
			return JobStatus{}, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Download streams the finished WAV to dest.
func (c *Client) Download(ctx context.Context, jobID, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID+"/wav", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download wav: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}
