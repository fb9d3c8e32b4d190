package presenter

import (
	"testing"

	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/recorder"
)

func TestRenderIdle(t *testing.T) {
	view := Render(recorder.StateIdle, "", "", nil)
	if view.Phase != PhaseIdle || view.Result != nil {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestRenderRecordingShowsLiveTranscript(t *testing.T) {
	view := Render(recorder.StateRecording, "sess-1", "hello [wor]", nil)
	if view.Phase != PhaseRecording {
		t.Fatalf("phase = %s", view.Phase)
	}
	if view.LiveTranscript != "hello [wor]" || view.SessionID != "sess-1" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestRenderCompletedResult(t *testing.T) {
	res := &pipeline.Result{
		JobID:        "job-1",
		SessionID:    "sess-1",
		Status:       pipeline.StatusCompleted,
		TranscriptText: "[00:00] Speaker 1: hello",
		AnalysisText: "a short greeting",
	}
	view := Render(recorder.StateIdle, "", "", res)
	if view.Phase != PhaseResult {
		t.Fatalf("phase = %s", view.Phase)
	}
	if !view.Result.CanShare {
		t.Fatal("completed result with analysis must be shareable")
	}
	if view.Result.SpeakerNote != "" || view.Result.AnalysisNote != "" {
		t.Fatalf("unexpected notes: %+v", view.Result)
	}
}

func TestRenderSyntheticSpeakersGetCaveat(t *testing.T) {
	res := &pipeline.Result{
		JobID:             "job-1",
		Status:            pipeline.StatusCompleted,
		TranscriptText:    "[00:00] Speaker 1: hi",
		AnalysisText:      "greeting",
		SyntheticSpeakers: true,
	}
	view := Render(recorder.StateIdle, "", "", res)
	if view.Result.SpeakerNote == "" {
		t.Fatal("synthetic speakers must carry a caveat")
	}
}

func TestRenderAnalysisFailureIsNotShareable(t *testing.T) {
	res := &pipeline.Result{
		JobID:          "job-1",
		Status:         pipeline.StatusCompleted,
		TranscriptText: "[00:00] Speaker 1: hi",
		AnalysisFailed: true,
	}
	view := Render(recorder.StateIdle, "", "", res)
	if view.Phase != PhaseResult {
		t.Fatalf("phase = %s, partial success still shows the result", view.Phase)
	}
	if view.Result.CanShare {
		t.Fatal("missing analysis must disable sharing")
	}
	if view.Result.AnalysisNote == "" {
		t.Fatal("missing analysis must carry a note")
	}
}

func TestRenderFailedJob(t *testing.T) {
	res := &pipeline.Result{
		JobID:        "job-1",
		SessionID:    "sess-1",
		Status:       pipeline.StatusFailed,
		ErrorMessage: "no transcript available",
	}
	view := Render(recorder.StateIdle, "", "", res)
	if view.Phase != PhaseError || view.Error != "no transcript available" {
		t.Fatalf("unexpected view: %+v", view)
	}
}
