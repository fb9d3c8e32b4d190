package diarize

import (
	"math"
	"testing"

	"github.com/scribeworks/meetscribe/internal/transcript"
)

func timedSegments(n int, eachSeconds float64) []transcript.Segment {
	segs := make([]transcript.Segment, n)
	for i := range segs {
		segs[i] = transcript.Segment{
			Text:  "segment",
			Start: float64(i) * eachSeconds,
			End:   float64(i+1) * eachSeconds,
		}
	}
	return segs
}

func TestSyntheticRoundRobin(t *testing.T) {
	segs := Synthetic{Period: 3}.AssignRoundRobin(timedSegments(6, 10))
	want := []string{"Speaker 1", "Speaker 1", "Speaker 1", "Speaker 2", "Speaker 2", "Speaker 2"}
	for i, seg := range segs {
		if seg.Speaker != want[i] {
			t.Fatalf("segment %d: got %q, want %q", i, seg.Speaker, want[i])
		}
	}
}

func TestSyntheticCyclesBack(t *testing.T) {
	segs := Synthetic{Period: 2}.AssignRoundRobin(timedSegments(5, 1))
	want := []string{"Speaker 1", "Speaker 1", "Speaker 2", "Speaker 2", "Speaker 1"}
	for i, seg := range segs {
		if seg.Speaker != want[i] {
			t.Fatalf("segment %d: got %q, want %q", i, seg.Speaker, want[i])
		}
	}
}

func TestSyntheticDoesNotMutateInput(t *testing.T) {
	in := timedSegments(2, 1)
	Synthetic{Period: 1}.AssignRoundRobin(in)
	if in[0].Speaker != "" {
		t.Fatal("input segments must stay untouched")
	}
}

// Two speakers, three 10s segments each under the round-robin-every-3
// heuristic: stats must show both labels with the right totals.
func TestSyntheticStats(t *testing.T) {
	segs := Synthetic{Period: 3}.AssignRoundRobin(timedSegments(6, 10))
	stats := transcript.SpeakerStats(segs)
	if len(stats) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(stats))
	}
	var total, percent float64
	for _, st := range stats {
		total += st.TotalSeconds
		percent += st.Percent
	}
	if total != 60 {
		t.Fatalf("expected 60s total, got %f", total)
	}
	if math.Abs(percent-100) > 0.1 {
		t.Fatalf("percentages must sum to 100, got %f", percent)
	}
	if math.Abs(stats[0].Percent-50) > 0.1 {
		t.Fatalf("expected even split, got %f", stats[0].Percent)
	}
}

func TestAlign(t *testing.T) {
	segs := []transcript.Segment{
		{Text: "a", Start: 1, End: 4},
		{Text: "b", Start: 6, End: 9},
		{Text: "c", Start: 20, End: 22},
	}
	turns := []Turn{
		{Speaker: "SPEAKER_00", Start: 0, End: 5},
		{Speaker: "SPEAKER_01", Start: 5, End: 10},
	}
	out := Align(segs, turns)
	if out[0].Speaker != "SPEAKER_00" || out[1].Speaker != "SPEAKER_01" {
		t.Fatalf("unexpected alignment: %+v", out)
	}
	if out[2].Speaker != "UNKNOWN" {
		t.Fatalf("segment outside all turns must be UNKNOWN, got %q", out[2].Speaker)
	}
}
