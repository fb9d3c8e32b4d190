package transcribe

import (
	"context"
	"io"

	"github.com/scribeworks/meetscribe/internal/transcript"
)

// MockBackend is a scripted backend for tests and offline development.
type MockBackend struct {
	Reachable bool
	Result    Result
	Err       error
	Calls     int
}

func (m *MockBackend) Ready(_ context.Context) bool { return m.Reachable }

func (m *MockBackend) Transcribe(_ context.Context, _ string, audio io.Reader, _ Options) (Result, error) {
	m.Calls++
	_, _ = io.Copy(io.Discard, audio)
	if m.Err != nil {
		return Result{}, m.Err
	}
	return m.Result, nil
}

// ScriptedResult builds a two-speaker result for tests.
func ScriptedResult(jobID string) Result {
	return Result{
		JobID: jobID,
		Segments: []transcript.Segment{
			{Text: "大家好，我們開始吧。", Start: 0, End: 4, Speaker: "SPEAKER_00", Confidence: 0.95},
			{Text: "好的，先看上週的進度。", Start: 4, End: 9, Speaker: "SPEAKER_01", Confidence: 0.92},
		},
		Language:     "zh",
		SpeakerCount: 2,
		Duration:     9,
	}
}
