package presenter

import (
	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/recorder"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Phase is what the view is currently showing.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhaseProcessing Phase = "processing"
	PhaseResult     Phase = "result"
	PhaseError      Phase = "error"
)

// View is the presentation state serialized to clients. Rendering is a
// pure function of controller state and job result; the presenter holds
// nothing.
type View struct {
	Phase          Phase       `json:"phase"`
	SessionID      string      `json:"session_id,omitempty"`
	LiveTranscript string      `json:"live_transcript,omitempty"`
	Result         *ResultView `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// ResultView is a completed job prepared for display.
type ResultView struct {
	JobID        string                  `json:"job_id"`
	Transcript   string                  `json:"transcript"`
	Analysis     string                  `json:"analysis,omitempty"`
	SpeakerStats []transcript.SpeakerStat `json:"speaker_stats,omitempty"`
	SpeakerNote  string                  `json:"speaker_note,omitempty"`
	AnalysisNote string                  `json:"analysis_note,omitempty"`
	CanShare     bool                    `json:"can_share"`
}

const (
	syntheticSpeakerNote = "Speaker labels are estimated; actual speakers were not identified."
	analysisFailedNote   = "Analysis is unavailable for this recording; the transcript was kept."
)

// Render maps controller state and the latest job result to a view.
func Render(state recorder.State, sessionID, live string, res *pipeline.Result) View {
	switch state {
	case recorder.StateRecording:
		return View{Phase: PhaseRecording, SessionID: sessionID, LiveTranscript: live}
	case recorder.StateProcessing:
		return View{Phase: PhaseProcessing, SessionID: sessionID, LiveTranscript: live}
	}

	if res == nil {
		return View{Phase: PhaseIdle}
	}
	switch res.Status {
	case pipeline.StatusProcessing:
		return View{Phase: PhaseProcessing, SessionID: res.SessionID}
	case pipeline.StatusFailed:
		return View{Phase: PhaseError, SessionID: res.SessionID, Error: res.ErrorMessage}
	}
	return View{
		Phase:     PhaseResult,
		SessionID: res.SessionID,
		Result:    renderResult(res),
	}
}

func renderResult(res *pipeline.Result) *ResultView {
	view := &ResultView{
		JobID:        res.JobID,
		Transcript:   res.TranscriptText,
		Analysis:     res.AnalysisText,
		SpeakerStats: res.SpeakerStats,
		CanShare:     res.AnalysisText != "",
	}
	if res.SyntheticSpeakers {
		view.SpeakerNote = syntheticSpeakerNote
	}
	if res.AnalysisFailed {
		view.AnalysisNote = analysisFailedNote
	}
	return view
}
