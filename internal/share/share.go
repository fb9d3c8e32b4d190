package share

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/scribeworks/meetscribe/internal/pipeline"
)

const truncationMarker = "…"

// Message renders a job result as shareable text: a titled analysis
// followed by the speaker breakdown. Output is deterministic for a given
// result, so repeated shares of one job are byte-identical.
func Message(res pipeline.Result, title string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(res.AnalysisText))

	if len(res.SpeakerStats) > 0 {
		b.WriteString("\n\nSpeakers:\n")
		for _, stat := range res.SpeakerStats {
			fmt.Fprintf(&b, "- %s: %.0f%% (%.0fs)\n", stat.Speaker, stat.Percent, stat.TotalSeconds)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Capped truncates a message to at most max runes, marker included.
// Messaging surfaces reject oversized payloads outright, so the cap is
// applied before handing the text over; max <= 0 means uncapped.
func Capped(message string, max int) string {
	if max <= 0 {
		return message
	}
	runes := []rune(message)
	if len(runes) <= max {
		return message
	}
	if max <= len(truncationMarker) {
		return string([]rune(truncationMarker)[:max])
	}
	return string(runes[:max-1]) + truncationMarker
}

// Copy places text on the system clipboard. When no clipboard is
// available the text goes to fallback instead, so the user still gets
// the payload on headless machines.
func Copy(text string, fallback io.Writer) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	if fallback == nil {
		return fmt.Errorf("clipboard unavailable and no fallback writer")
	}
	if _, err := io.WriteString(fallback, text+"\n"); err != nil {
		return fmt.Errorf("write fallback: %w", err)
	}
	return nil
}
