package transcribe

import (
	"context"
	"errors"
	"io"

	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Options parametrize one transcription submission.
type Options struct {
	Language    string
	NumSpeakers int
	Async       bool
}

// Result is a finished backend transcription with per-segment timing and
// speaker labels.
type Result struct {
	JobID        string
	Segments     []transcript.Segment
	Language     string
	SpeakerCount int
	Duration     float64
}

// Backend is the remote transcription + diarization collaborator. Ready
// reports whether the full processing path is reachable; Transcribe
// uploads a finalized clip and blocks until the backend produces segments
// or the polling budget runs out.
type Backend interface {
	Ready(ctx context.Context) bool
	Transcribe(ctx context.Context, filename string, audio io.Reader, opts Options) (Result, error)
}

// ErrPollBudgetExceeded reports an async job that did not finish within the
// configured wall-clock budget. Mapped to backend unavailability by the
// pipeline, triggering fallback like any other full-path failure.
var ErrPollBudgetExceeded = errors.New("transcription job polling budget exceeded")
