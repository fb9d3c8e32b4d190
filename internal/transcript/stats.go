package transcript

// SpeakerStat is derived from segment durations, never persisted.
type SpeakerStat struct {
	Speaker      string  `json:"speaker"`
	TotalSeconds float64 `json:"total_seconds"`
	Percent      float64 `json:"percent"`
}

// SpeakerStats sums segment durations per speaker, in order of first
// appearance. Percentages sum to 100 when total duration is positive and
// are all zero when it is zero (untimed live segments).
func SpeakerStats(segments []Segment) []SpeakerStat {
	var order []string
	totals := make(map[string]float64)
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		if _, seen := totals[speaker]; !seen {
			order = append(order, speaker)
		}
		totals[speaker] += seg.Duration()
	}

	var overall float64
	for _, total := range totals {
		overall += total
	}

	stats := make([]SpeakerStat, 0, len(order))
	for _, speaker := range order {
		stat := SpeakerStat{Speaker: speaker, TotalSeconds: totals[speaker]}
		if overall > 0 {
			stat.Percent = totals[speaker] / overall * 100
		}
		stats = append(stats, stat)
	}
	return stats
}
