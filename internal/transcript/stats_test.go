package transcript

import (
	"math"
	"testing"
)

func TestSpeakerStatsPercentagesSumTo100(t *testing.T) {
	segments := []Segment{
		{Text: "a", Start: 0, End: 10, Speaker: "SPEAKER_00"},
		{Text: "b", Start: 10, End: 17, Speaker: "SPEAKER_01"},
		{Text: "c", Start: 17, End: 20, Speaker: "SPEAKER_00"},
		{Text: "d", Start: 20, End: 33, Speaker: "SPEAKER_02"},
	}
	stats := SpeakerStats(segments)
	if len(stats) != 3 {
		t.Fatalf("expected 3 speakers, got %d", len(stats))
	}
	var sum float64
	for _, st := range stats {
		sum += st.Percent
	}
	if math.Abs(sum-100) > 0.1 {
		t.Fatalf("percentages must sum to 100, got %f", sum)
	}
	if stats[0].Speaker != "SPEAKER_00" || stats[0].TotalSeconds != 13 {
		t.Fatalf("unexpected first stat: %+v", stats[0])
	}
}

func TestSpeakerStatsZeroDuration(t *testing.T) {
	segments := []Segment{
		{Text: "untimed", Speaker: "Speaker 1"},
		{Text: "also untimed", Speaker: "Speaker 2"},
	}
	for _, st := range SpeakerStats(segments) {
		if st.Percent != 0 {
			t.Fatalf("expected zero percent for zero total duration, got %+v", st)
		}
	}
}

func TestSpeakerStatsUnlabeledSegments(t *testing.T) {
	stats := SpeakerStats([]Segment{{Text: "x", Start: 0, End: 5}})
	if len(stats) != 1 || stats[0].Speaker != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN bucket, got %+v", stats)
	}
	if math.Abs(stats[0].Percent-100) > 0.1 {
		t.Fatalf("single speaker must hold 100%%, got %f", stats[0].Percent)
	}
}

func TestSegmentsFromText(t *testing.T) {
	segs := SegmentsFromText("第一句。第二句。And a third.")
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "第一句。" {
		t.Fatalf("unexpected first segment: %q", segs[0].Text)
	}
	if segs[2].Text != "And a third." {
		t.Fatalf("unexpected last segment: %q", segs[2].Text)
	}
	if SegmentsFromText("   ") != nil {
		t.Fatal("expected nil for blank text")
	}
}

func TestRender(t *testing.T) {
	got := Render([]Segment{
		{Text: "大家好", Start: 0, Speaker: "SPEAKER_00"},
		{Text: "hello", Start: 75.4, Speaker: "SPEAKER_01"},
		{Text: "no speaker", Start: 130},
	})
	want := "[00:00] SPEAKER_00: 大家好\n[01:15] SPEAKER_01: hello\n[02:10] UNKNOWN: no speaker"
	if got != want {
		t.Fatalf("unexpected render:\n%s", got)
	}
}
