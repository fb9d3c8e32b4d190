package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/scribeworks/meetscribe/internal/analyze"
	"github.com/scribeworks/meetscribe/internal/capture"
	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/diarize"
	"github.com/scribeworks/meetscribe/internal/protocol"
	"github.com/scribeworks/meetscribe/internal/transcribe"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

// Status is the terminal state of a processing job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Input is everything a finished recording hands to processing: the
// finalized clip, the live transcript confirmed so far, and the requested
// analysis.
type Input struct {
	SessionID      string
	Clip           capture.Clip
	LiveTranscript string
	AnalysisType   analyze.AnalysisType
	Language       string
	NumSpeakers    int
}

// Result is the normalized outcome of one processing job. Process always
// returns one; failures are carried in Status and ErrorMessage, never
// raised past this boundary.
type Result struct {
	JobID          string
	SessionID      string
	Status         Status
	AnalysisType   analyze.AnalysisType
	Segments       []transcript.Segment
	TranscriptText string
	AnalysisText   string
	SpeakerStats   []transcript.SpeakerStat

	// SyntheticSpeakers marks labels invented by the round-robin
	// heuristic rather than real diarization. Presented with a caveat.
	SyntheticSpeakers bool
	// AnalysisFailed marks a job whose transcript survived but whose
	// analysis call did not. The job still completes.
	AnalysisFailed bool
	UsedBackend    bool
	ErrorMessage   string
}

// Orchestrator runs processing jobs over two paths. The full path uploads
// the clip to the transcription backend for real segmentation and speaker
// diarization. When that path is unreachable or fails, the job falls back
// exactly once to the degraded path: the live transcript is split into
// sentence segments and speakers are assigned by heuristic. A job with no
// transcript from either path fails.
type Orchestrator struct {
	cfg      config.PipelineConfig
	backend  transcribe.Backend
	analyzer *analyze.Service
	logger   *slog.Logger

	// OnUpdate observes job progress. Called from the Process goroutine.
	OnUpdate func(update protocol.JobUpdate)
	// Diarizer, when set, labels full-path segments that the backend
	// returned timed but without speakers. It never runs on the degraded
	// path, whose sentence segments carry no timing for turns to land on.
	Diarizer diarize.Diarizer
}

func NewOrchestrator(cfg config.PipelineConfig, backend transcribe.Backend, analyzer *analyze.Service, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		backend:  backend,
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// Process runs one job to completion.
func (o *Orchestrator) Process(ctx context.Context, jobID string, in Input) Result {
	res := Result{JobID: jobID, SessionID: in.SessionID, Status: StatusProcessing, AnalysisType: in.AnalysisType}
	o.update(jobID, in.SessionID, res.Status, "started", "")

	segments, usedBackend, synthetic, err := o.resolveTranscript(ctx, jobID, in)
	if err != nil {
		res.Status = StatusFailed
		res.ErrorMessage = err.Error()
		o.update(jobID, in.SessionID, res.Status, "transcript", res.ErrorMessage)
		return res
	}
	res.Segments = segments
	res.UsedBackend = usedBackend
	res.SyntheticSpeakers = synthetic
	res.TranscriptText = transcript.Render(segments)
	res.SpeakerStats = transcript.SpeakerStats(segments)

	o.update(jobID, in.SessionID, res.Status, "analyze", "")
	analysis, err := o.analyzer.Analyze(ctx, analyze.Request{
		Type:           in.AnalysisType,
		TranscriptText: res.TranscriptText,
	})
	if err != nil {
		// Transcript survives an analysis failure; the job still
		// completes, minus its analysis.
		o.logger.Warn("analysis failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		res.AnalysisFailed = true
		res.ErrorMessage = fmt.Errorf("%w: %v", ErrAnalysisFailed, err).Error()
	} else {
		res.AnalysisText = analysis
	}

	res.Status = StatusCompleted
	o.update(jobID, in.SessionID, res.Status, "done", res.ErrorMessage)
	return res
}

// resolveTranscript tries the full path, then falls back to the degraded
// path at most once.
func (o *Orchestrator) resolveTranscript(ctx context.Context, jobID string, in Input) (segments []transcript.Segment, usedBackend, synthetic bool, err error) {
	if o.backendUsable(ctx, in) {
		o.update(jobID, in.SessionID, StatusProcessing, "transcribe", "")
		segments, err := o.transcribeClip(ctx, in)
		if err == nil {
			return o.labelBackendSegments(ctx, jobID, in, segments)
		}
		o.logger.Warn("full processing path failed, falling back to live transcript",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		o.update(jobID, in.SessionID, StatusProcessing, "fallback", err.Error())
	}

	// Degraded-path sentence segments carry no timing, so remote turns
	// have nothing to align against; labels come from the heuristic and
	// are flagged synthetic.
	segments = transcript.SegmentsFromText(in.LiveTranscript)
	if len(segments) == 0 {
		return nil, false, false, ErrNoTranscript
	}
	heuristic := diarize.Synthetic{Period: o.cfg.SpeakerHeuristicPeriod}
	return heuristic.AssignRoundRobin(segments), false, true, nil
}

// labelBackendSegments resolves speakers for a successful backend
// transcription. Backends that diarize themselves return labeled
// segments; otherwise the remote diarizer gets the clip and the timed
// segments. Labels invented by the heuristic are flagged synthetic even
// on the full path.
func (o *Orchestrator) labelBackendSegments(ctx context.Context, jobID string, in Input, segments []transcript.Segment) ([]transcript.Segment, bool, bool, error) {
	if hasSpeakerLabels(segments) {
		return segments, true, false, nil
	}
	if o.Diarizer != nil && hasTimings(segments) {
		labeled, err := o.Diarizer.AssignSpeakers(ctx, in.Clip.Path, in.NumSpeakers, segments)
		if err == nil && hasSpeakerLabels(labeled) {
			return labeled, true, false, nil
		}
		if err != nil {
			o.logger.Warn("diarization failed, using heuristic labels",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()))
		}
	}
	heuristic := diarize.Synthetic{Period: o.cfg.SpeakerHeuristicPeriod}
	return heuristic.AssignRoundRobin(segments), true, true, nil
}

func hasTimings(segments []transcript.Segment) bool {
	for _, seg := range segments {
		if seg.End > seg.Start || seg.Start > 0 {
			return true
		}
	}
	return false
}

func hasSpeakerLabels(segments []transcript.Segment) bool {
	for _, seg := range segments {
		if seg.Speaker != "" {
			return true
		}
	}
	return false
}

func (o *Orchestrator) backendUsable(ctx context.Context, in Input) bool {
	if !o.cfg.UseBackend || o.backend == nil || in.Clip.Empty() {
		return false
	}
	if !o.backend.Ready(ctx) {
		o.logger.Warn("backend health probe failed", slog.String("session_id", in.SessionID))
		return false
	}
	return true
}

func (o *Orchestrator) transcribeClip(ctx context.Context, in Input) ([]transcript.Segment, error) {
	file, err := os.Open(in.Clip.Path)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer file.Close()

	result, err := o.backend.Transcribe(ctx, in.Clip.Filename(), file, transcribe.Options{
		Language:    in.Language,
		NumSpeakers: in.NumSpeakers,
		Async:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("%w: backend returned no segments", ErrBackendUnavailable)
	}
	return result.Segments, nil
}

func (o *Orchestrator) update(jobID, sessionID string, status Status, step, errMsg string) {
	if o.OnUpdate == nil {
		return
	}
	o.OnUpdate(protocol.JobUpdate{
		JobID:     jobID,
		SessionID: sessionID,
		Status:    string(status),
		Step:      step,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	})
}
