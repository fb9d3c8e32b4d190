package protocol

import "time"

// AudioChunk is one interval's worth of captured audio for a recording
// session. Chunks are published in capture order; Sequence is strictly
// increasing within a session.
type AudioChunk struct {
	SessionID  string `json:"session_id"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
}

// RecognitionResult is a single hypothesis inside a recognition event.
type RecognitionResult struct {
	Text       string  `json:"text"`
	Final      bool    `json:"final"`
	Confidence float64 `json:"confidence,omitempty"`
}

// RecognitionEvent mirrors the shape of a continuous recognizer's result
// callback: the full ordered results list is re-emitted on every event, so
// consumers must deduplicate by index.
type RecognitionEvent struct {
	SessionID string              `json:"session_id"`
	Results   []RecognitionResult `json:"results"`
	Timestamp time.Time           `json:"timestamp"`
}

// TranscriptUpdate is the accumulator's view after consuming an event.
type TranscriptUpdate struct {
	SessionID string    `json:"session_id"`
	Confirmed string    `json:"confirmed"`
	Interim   string    `json:"interim,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JobUpdate broadcasts processing progress for a submitted clip.
type JobUpdate struct {
	JobID     string    `json:"job_id"`
	SessionID string    `json:"session_id,omitempty"`
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectAudioIngest       = "audio.ingest"
	SubjectAudioChunkPrefix  = "audio.chunk"
	SubjectRecognitionPrefix = "recognition.event"
	SubjectTranscriptPartial = "transcript.partial"
	SubjectTranscriptFinal   = "transcript.final"
	SubjectJobUpdate         = "job.update"
)
