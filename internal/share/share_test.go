package share

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

func sampleResult() pipeline.Result {
	return pipeline.Result{
		JobID:        "job-1",
		AnalysisText: "Decisions: ship on Friday.",
		SpeakerStats: []transcript.SpeakerStat{
			{Speaker: "Speaker 1", TotalSeconds: 30, Percent: 75},
			{Speaker: "Speaker 2", TotalSeconds: 10, Percent: 25},
		},
	}
}

func TestMessageFormat(t *testing.T) {
	msg := Message(sampleResult(), "Meeting Summary")
	if !strings.HasPrefix(msg, "Meeting Summary\n\nDecisions: ship on Friday.") {
		t.Fatalf("unexpected message:\n%s", msg)
	}
	if !strings.Contains(msg, "- Speaker 1: 75% (30s)") {
		t.Fatalf("missing speaker breakdown:\n%s", msg)
	}
	if strings.HasSuffix(msg, "\n") {
		t.Fatal("message must not end with a newline")
	}
}

func TestMessageIsDeterministic(t *testing.T) {
	a := Message(sampleResult(), "Meeting Summary")
	b := Message(sampleResult(), "Meeting Summary")
	if a != b {
		t.Fatal("repeated shares of one result must be byte-identical")
	}
}

func TestCappedShortMessageUntouched(t *testing.T) {
	if got := Capped("short", 800); got != "short" {
		t.Fatalf("short message altered: %q", got)
	}
}

func TestCappedTruncatesAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("會議紀錄", 300)
	got := Capped(long, 800)
	if utf8.RuneCountInString(got) != 800 {
		t.Fatalf("capped length = %d runes, want 800", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("missing truncation marker: %q", got[len(got)-12:])
	}
}

func TestCappedZeroMeansUncapped(t *testing.T) {
	long := strings.Repeat("x", 5000)
	if got := Capped(long, 0); got != long {
		t.Fatal("max 0 must leave the message uncapped")
	}
}

func TestCopyFallsBackToWriter(t *testing.T) {
	// Headless CI has no clipboard; the fallback writer must receive the
	// payload either way.
	var sink strings.Builder
	if err := Copy("payload", &sink); err != nil {
		if sink.Len() == 0 {
			t.Fatalf("copy failed with empty fallback: %v", err)
		}
	}
}
