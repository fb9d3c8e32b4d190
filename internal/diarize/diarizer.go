package diarize

import (
	"context"

	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Turn is one speaker interval reported by a diarization backend.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Diarizer assigns speaker labels to transcript segments. The audio
// reference names the recording being diarized; segments must carry
// timing for the returned turns to land on them. Absence of a
// diarization backend is a supported degraded mode, not an error.
type Diarizer interface {
	AssignSpeakers(ctx context.Context, audioRef string, numSpeakers int, segments []transcript.Segment) ([]transcript.Segment, error)
}

// Noop leaves segments untouched.
type Noop struct{}

func (Noop) AssignSpeakers(_ context.Context, _ string, _ int, segments []transcript.Segment) ([]transcript.Segment, error) {
	return segments, nil
}

// Align maps each segment to the turn covering its start offset. Segments
// outside every turn keep their existing label, or UNKNOWN when unlabeled.
func Align(segments []transcript.Segment, turns []Turn) []transcript.Segment {
	if len(turns) == 0 {
		return segments
	}
	out := make([]transcript.Segment, len(segments))
	for i, seg := range segments {
		speaker := seg.Speaker
		for _, turn := range turns {
			if seg.Start >= turn.Start && seg.Start <= turn.End {
				speaker = turn.Speaker
				break
			}
		}
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		out[i] = seg
		out[i].Speaker = speaker
	}
	return out
}
