package transcript

import (
	"fmt"
	"strings"
)

// Segment is a single transcribed span. Live recognition produces segments
// with text only; backend transcription fills timing and speaker fields.
// Segments are immutable once created; a transcript is an ordered slice.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start,omitempty"`
	End        float64 `json:"end,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Duration returns the segment length in seconds, zero when untimed.
func (s Segment) Duration() float64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

var sentenceEnders = "。．.!?！？\n"

// SegmentsFromText splits plain accumulated text into sentence-level
// segments. Used when only a live transcript exists and no backend
// produced timed segments.
func SegmentsFromText(text string) []Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var segs []Segment
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if strings.ContainsRune(sentenceEnders, r) {
			if s := strings.TrimSpace(sb.String()); s != "" {
				segs = append(segs, Segment{Text: s})
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		segs = append(segs, Segment{Text: s})
	}
	return segs
}

// Render formats segments as "[mm:ss] speaker: text" lines for prompts and
// transcript views. Untimed segments omit nothing; a zero start renders as
// 00:00, matching the wire shape the analysis backend expects.
func Render(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		minutes := int(seg.Start) / 60
		seconds := int(seg.Start) % 60
		lines = append(lines, fmt.Sprintf("[%02d:%02d] %s: %s", minutes, seconds, speaker, text))
	}
	return strings.Join(lines, "\n")
}
