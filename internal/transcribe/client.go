package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Client talks to the remote transcription backend over HTTP. Submissions
// go up as multipart audio; the backend either answers with segments
// immediately or hands back a job id that is polled at a fixed interval.
type Client struct {
	cfg    config.TranscribeConfig
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg config.TranscribeConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "transcribe")),
	}
}

// wireSegment matches the backend's segment shape.
type wireSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence,omitempty"`
}

type processResponse struct {
	JobID        string        `json:"job_id"`
	Status       string        `json:"status"`
	Transcript   []wireSegment `json:"transcript,omitempty"`
	SpeakerCount int           `json:"speaker_count,omitempty"`
	Language     string        `json:"language,omitempty"`
	Duration     float64       `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Ready probes the backend's health endpoint. A failed probe routes
// processing onto the degraded path; it is not an error.
func (c *Client) Ready(ctx context.Context) bool {
	if c.cfg.Endpoint == "" {
		return false
	}
	probeTimeout := time.Duration(c.cfg.ProbeTimeoutMS) * time.Millisecond
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Info("backend health probe failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

// Transcribe uploads a clip and returns the finished transcription.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader, opts Options) (Result, error) {
	resp, err := c.submit(ctx, filename, audio, opts)
	if err != nil {
		return Result{}, err
	}
	if resp.Status == "completed" {
		return toResult(resp), nil
	}
	if resp.Status == "failed" {
		return Result{}, fmt.Errorf("transcription failed: %s", resp.Error)
	}
	if resp.JobID == "" {
		return Result{}, fmt.Errorf("backend returned status %q with no job id", resp.Status)
	}
	return c.pollJob(ctx, resp.JobID)
}

func (c *Client) submit(ctx context.Context, filename string, audio io.Reader, opts Options) (processResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	language := opts.Language
	if language == "" {
		language = c.cfg.Language
	}
	if err := mw.WriteField("language", language); err != nil {
		return processResponse{}, err
	}
	if opts.NumSpeakers > 0 {
		if err := mw.WriteField("num_speakers", strconv.Itoa(opts.NumSpeakers)); err != nil {
			return processResponse{}, err
		}
	}
	if err := mw.WriteField("async_processing", strconv.FormatBool(opts.Async)); err != nil {
		return processResponse{}, err
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return processResponse{}, err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return processResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return processResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/process-audio", &body)
	if err != nil {
		return processResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return processResponse{}, fmt.Errorf("submit audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return processResponse{}, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, detail)
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return processResponse{}, fmt.Errorf("decode submit response: %w", err)
	}
	return out, nil
}

// pollJob polls the job status endpoint at a fixed interval until the job
// settles or the wall-clock budget is spent.
func (c *Client) pollJob(ctx context.Context, jobID string) (Result, error) {
	interval := time.Duration(c.cfg.PollIntervalMS) * time.Millisecond
	budget := time.Duration(c.cfg.PollBudgetMS) * time.Millisecond
	deadline := time.Now().Add(budget)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return Result{}, ErrPollBudgetExceeded
		}

		status, err := c.jobStatus(ctx, jobID)
		if err != nil {
			return Result{}, err
		}
		switch status.Status {
		case "completed":
			status.JobID = jobID
			return toResult(status), nil
		case "failed":
			return Result{}, fmt.Errorf("transcription job %s failed: %s", jobID, status.Error)
		case "pending", "processing":
			// keep polling
		default:
			return Result{}, fmt.Errorf("transcription job %s reported unknown status %q", jobID, status.Status)
		}
	}
}

func (c *Client) jobStatus(ctx context.Context, jobID string) (processResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/job/"+jobID+"/status", nil)
	if err != nil {
		return processResponse{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return processResponse{}, fmt.Errorf("poll job %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return processResponse{}, fmt.Errorf("job status returned %d", resp.StatusCode)
	}
	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return processResponse{}, fmt.Errorf("decode job status: %w", err)
	}
	return out, nil
}

func toResult(resp processResponse) Result {
	segments := make([]transcript.Segment, 0, len(resp.Transcript))
	for _, ws := range resp.Transcript {
		segments = append(segments, transcript.Segment{
			Text:       ws.Text,
			Start:      ws.Start,
			End:        ws.End,
			Speaker:    ws.Speaker,
			Confidence: ws.Confidence,
		})
	}
	return Result{
		JobID:        resp.JobID,
		Segments:     segments,
		Language:     resp.Language,
		SpeakerCount: resp.SpeakerCount,
		Duration:     resp.Duration,
	}
}
