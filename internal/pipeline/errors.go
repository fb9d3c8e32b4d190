package pipeline

import "errors"

// ErrNoTranscript reports that neither the backend nor the live
// recognizer produced any transcript text, so there is nothing to
// analyze.
var ErrNoTranscript = errors.New("no transcript available")

// ErrBackendUnavailable reports that the full processing path could not
// be used: the health probe failed, the upload was rejected, or the job
// overran its polling budget.
var ErrBackendUnavailable = errors.New("processing backend unavailable")

// ErrAnalysisFailed marks an analysis call that failed after a transcript
// was secured. The job still completes with the transcript.
var ErrAnalysisFailed = errors.New("analysis failed")
