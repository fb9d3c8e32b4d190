package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Client calls an external speaker-diarization backend and aligns the
// returned turns with the transcript segments.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(cfg config.DiarizeConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type diarizeRequest struct {
	AudioURL    string `json:"audio_url,omitempty"`
	JobID       string `json:"job_id,omitempty"`
	NumSpeakers int    `json:"num_speakers,omitempty"`
}

type diarizeResponse struct {
	Speakers []Turn `json:"speakers"`
	Error    string `json:"error,omitempty"`
}

// Diarize fetches speaker turns for a processed audio reference.
func (c *Client) Diarize(ctx context.Context, audioRef string, numSpeakers int) ([]Turn, error) {
	body, err := json.Marshal(diarizeRequest{AudioURL: audioRef, NumSpeakers: numSpeakers})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("diarization backend returned status %s", resp.Status)
	}

	var out diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("diarization backend: %s", out.Error)
	}
	return out.Speakers, nil
}

// AssignSpeakers implements Diarizer over the remote backend. The backend
// needs a recording to work on, so an empty audio reference is an error.
func (c *Client) AssignSpeakers(ctx context.Context, audioRef string, numSpeakers int, segments []transcript.Segment) ([]transcript.Segment, error) {
	if audioRef == "" {
		return segments, fmt.Errorf("diarization needs an audio reference")
	}
	turns, err := c.Diarize(ctx, audioRef, numSpeakers)
	if err != nil {
		return segments, err
	}
	return Align(segments, turns), nil
}
