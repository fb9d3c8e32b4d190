package transcript

import (
	"strings"

	"github.com/scribeworks/meetscribe/internal/protocol"
)

// Accumulator folds a stream of recognition events into a confirmed
// transcript. Continuous recognizers re-emit the full results list on every
// event, so the accumulator keeps a consumption watermark and only appends
// final results at indexes it has not consumed yet. Interim hypotheses are
// recomputed from scratch per event and never enter the confirmed buffer.
//
// Not safe for concurrent use; a recording session owns exactly one.
type Accumulator struct {
	confirmed    strings.Builder
	interim      string
	lastConsumed int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Consume processes one recognition event in delivery order.
func (a *Accumulator) Consume(ev protocol.RecognitionEvent) {
	var interim strings.Builder
	for i, res := range ev.Results {
		if res.Final {
			if i >= a.lastConsumed {
				text := strings.TrimSpace(res.Text)
				if text != "" {
					if a.confirmed.Len() > 0 {
						a.confirmed.WriteByte(' ')
					}
					a.confirmed.WriteString(text)
				}
				a.lastConsumed = i + 1
			}
			continue
		}
		interim.WriteString(res.Text)
	}
	a.interim = interim.String()
}

// Confirmed returns the monotonically growing finalized text.
func (a *Accumulator) Confirmed() string {
	return a.confirmed.String()
}

// Interim returns the transient hypothesis from the latest event.
func (a *Accumulator) Interim() string {
	return a.interim
}

// Display renders confirmed text with the current interim hypothesis
// appended in brackets, the shape shown in the live transcript view.
func (a *Accumulator) Display() string {
	confirmed := a.confirmed.String()
	if a.interim == "" {
		return confirmed
	}
	if confirmed == "" {
		return "[" + a.interim + "]"
	}
	return confirmed + " [" + a.interim + "]"
}

// Rollover clears the consumption watermark and interim hypothesis while
// keeping confirmed text. A restarted recognizer numbers its results from
// zero again, so the watermark must follow or every post-restart final
// would be skipped.
func (a *Accumulator) Rollover() {
	a.interim = ""
	a.lastConsumed = 0
}

// Reset clears all state. Called exactly when a new recording session
// starts; recognizer errors never reset the accumulator.
func (a *Accumulator) Reset() {
	a.confirmed.Reset()
	a.interim = ""
	a.lastConsumed = 0
}
