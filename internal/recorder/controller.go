package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scribeworks/meetscribe/internal/analyze"
	"github.com/scribeworks/meetscribe/internal/bus"
	"github.com/scribeworks/meetscribe/internal/capture"
	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/eventstore"
	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/protocol"
	"github.com/scribeworks/meetscribe/internal/recognition"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

var (
	// ErrAlreadyRecording rejects a second concurrent recording.
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	// ErrProcessing rejects new work while a processing job is running.
	ErrProcessing = errors.New("a processing job is still running")
	// ErrNotRecording rejects a stop with no active recording.
	ErrNotRecording = errors.New("no recording in progress")
)

// State is the controller's lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Controller owns one recording lifecycle at a time: capture and live
// recognition while recording, then a single processing job on stop. A
// new recording is rejected until the previous job reaches a terminal
// state, so a session's clip, transcript, and result never interleave
// with another's.
type Controller struct {
	cfg     config.Config
	capture *capture.Session
	recog   *recognition.Session
	orch    *pipeline.Orchestrator
	store   *eventstore.Store
	bus     *bus.Client
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	sessionID string
	startedAt time.Time
	jobs      map[string]pipeline.Result

	accMu       sync.Mutex
	acc         *transcript.Accumulator
	lastInterim time.Time

	wg    sync.WaitGroup
	clock func() time.Time
}

func New(cfg config.Config, source capture.Source, engine recognition.Engine, orch *pipeline.Orchestrator, store *eventstore.Store, busClient *bus.Client, logger *slog.Logger) *Controller {
	c := &Controller{
		cfg:    cfg,
		orch:   orch,
		store:  store,
		bus:    busClient,
		logger: logger.With(slog.String("component", "recorder")),
		state:  StateIdle,
		jobs:   make(map[string]pipeline.Result),
		acc:    transcript.NewAccumulator(),
		clock:  time.Now,
	}

	c.capture = capture.NewSession(cfg.Capture, source, logger)
	c.capture.OnChunk = c.publishChunk

	c.recog = recognition.NewSession(cfg.Recognition, engine, logger)
	c.recog.OnEvent = c.consumeRecognition
	c.recog.OnRestart = c.rolloverTranscript

	orch.OnUpdate = c.handleJobUpdate
	return c
}

// State reports the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID reports the active session, empty when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// LiveTranscript renders the confirmed text with the current interim
// hypothesis, the string shown in the live view.
func (c *Controller) LiveTranscript() string {
	c.accMu.Lock()
	defer c.accMu.Unlock()
	return c.acc.Display()
}

// StartRecording begins a new recording session. Microphone permission
// failures surface as capture.ErrPermissionDenied.
func (c *Controller) StartRecording(ctx context.Context) (string, error) {
	c.mu.Lock()
	switch c.state {
	case StateRecording:
		c.mu.Unlock()
		return "", ErrAlreadyRecording
	case StateProcessing:
		c.mu.Unlock()
		return "", ErrProcessing
	}
	// Claim the recording state before the lock drops so a concurrent
	// StartRecording is rejected instead of opening a second stream.
	sessionID := uuid.NewString()
	c.sessionID = sessionID
	c.startedAt = c.clock()
	c.state = StateRecording
	c.mu.Unlock()

	c.accMu.Lock()
	c.acc.Reset()
	c.accMu.Unlock()

	if err := c.capture.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.sessionID = ""
		c.mu.Unlock()
		return "", err
	}
	if err := c.recog.Start(sessionID); err != nil {
		// Live transcription is best effort; the clip still records.
		c.logger.Warn("live recognition unavailable", slog.String("error", err.Error()))
	}

	if err := c.store.BeginSession(ctx, sessionID); err != nil {
		c.logger.Warn("failed to record session start", slog.String("error", err.Error()))
	}

	c.logger.Info("recording started", slog.String("session_id", sessionID))
	return sessionID, nil
}

// StopAndProcess ends the recording and submits its clip and live
// transcript for processing. The analysis type is validated before
// anything stops, so a bad type leaves the recording running.
func (c *Controller) StopAndProcess(ctx context.Context, analysisType string) (string, error) {
	parsed, err := analyze.ParseAnalysisType(analysisType)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.state != StateRecording {
		state := c.state
		c.mu.Unlock()
		if state == StateProcessing {
			return "", ErrProcessing
		}
		return "", ErrNotRecording
	}
	sessionID := c.sessionID
	startedAt := c.startedAt
	c.state = StateProcessing
	c.mu.Unlock()

	c.recog.Stop()
	clip, err := c.capture.Stop()
	if err != nil {
		c.logger.Warn("failed to finalize clip", slog.String("error", err.Error()))
		clip = capture.Clip{}
	}

	c.accMu.Lock()
	confirmed := c.acc.Confirmed()
	c.accMu.Unlock()
	c.publishTranscript(sessionID, protocol.SubjectTranscriptFinal, confirmed, "")

	if err := c.store.EndSession(ctx, sessionID, confirmed, c.clock().Sub(startedAt)); err != nil {
		c.logger.Warn("failed to record session end", slog.String("error", err.Error()))
	}

	return c.submit(sessionID, pipeline.Input{
		SessionID:      sessionID,
		Clip:           clip,
		LiveTranscript: confirmed,
		AnalysisType:   parsed,
		Language:       c.cfg.Transcribe.Language,
		NumSpeakers:    c.cfg.Transcribe.NumSpeakers,
	}), nil
}

// ProcessFile submits a pre-recorded file, bypassing capture. The live
// transcript belongs to microphone sessions and is cleared so a stale
// one can never leak into the file's degraded path.
func (c *Controller) ProcessFile(ctx context.Context, path, analysisType string) (string, error) {
	parsed, err := analyze.ParseAnalysisType(analysisType)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	switch c.state {
	case StateRecording:
		c.mu.Unlock()
		return "", ErrAlreadyRecording
	case StateProcessing:
		c.mu.Unlock()
		return "", ErrProcessing
	}
	sessionID := uuid.NewString()
	c.sessionID = sessionID
	c.state = StateProcessing
	c.mu.Unlock()

	c.accMu.Lock()
	c.acc.Reset()
	c.accMu.Unlock()

	clip, err := capture.ClipFromFile(path)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.sessionID = ""
		c.mu.Unlock()
		return "", fmt.Errorf("load audio file: %w", err)
	}

	if err := c.store.BeginSession(ctx, sessionID); err != nil {
		c.logger.Warn("failed to record session start", slog.String("error", err.Error()))
	}

	return c.submit(sessionID, pipeline.Input{
		SessionID:    sessionID,
		Clip:         clip,
		AnalysisType: parsed,
		Language:     c.cfg.Transcribe.Language,
		NumSpeakers:  c.cfg.Transcribe.NumSpeakers,
	}), nil
}

func (c *Controller) submit(sessionID string, in pipeline.Input) string {
	jobID := uuid.NewString()

	c.mu.Lock()
	c.jobs[jobID] = pipeline.Result{JobID: jobID, SessionID: sessionID, Status: pipeline.StatusProcessing}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res := c.orch.Process(context.Background(), jobID, in)

		c.mu.Lock()
		c.jobs[jobID] = res
		c.state = StateIdle
		c.sessionID = ""
		c.mu.Unlock()

		if err := c.store.SaveJob(context.Background(), eventstore.Job{
			JobID:             res.JobID,
			SessionID:         res.SessionID,
			Status:            string(res.Status),
			AnalysisType:      string(in.AnalysisType),
			Transcript:        res.TranscriptText,
			Analysis:          res.AnalysisText,
			Error:             res.ErrorMessage,
			UsedBackend:       res.UsedBackend,
			SyntheticSpeakers: res.SyntheticSpeakers,
		}); err != nil {
			c.logger.Warn("failed to persist job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		}
	}()
	return jobID
}

// Job reports a job's latest known result.
func (c *Controller) Job(jobID string) (pipeline.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.jobs[jobID]
	return res, ok
}

// Close stops any active session and waits for in-flight processing.
func (c *Controller) Close() {
	c.recog.Stop()
	if clip, err := c.capture.Stop(); err == nil && !clip.Empty() {
		c.logger.Info("discarding clip from interrupted recording", slog.String("path", clip.Path))
	}
	c.wg.Wait()
}

func (c *Controller) consumeRecognition(ev protocol.RecognitionEvent) {
	c.accMu.Lock()
	c.acc.Consume(ev)
	confirmed := c.acc.Confirmed()
	interim := c.acc.Interim()
	c.accMu.Unlock()

	c.bus.PublishJSON(protocol.SubjectRecognitionPrefix+"."+ev.SessionID, ev)
	if c.shouldPublishInterim(interim) {
		c.publishTranscript(ev.SessionID, protocol.SubjectTranscriptPartial, confirmed, interim)
	}
}

// shouldPublishInterim gates interim-bearing transcript updates: interim
// publishing can be disabled outright, or throttled to one update per
// configured window so a chatty recognizer does not flood the bus.
// Confirmed-only updates always pass.
func (c *Controller) shouldPublishInterim(interim string) bool {
	if interim == "" {
		return true
	}
	if !c.cfg.Recognition.PublishInterim {
		return false
	}
	throttle := time.Duration(c.cfg.Recognition.InterimThrottleMS) * time.Millisecond
	if throttle <= 0 {
		return true
	}

	c.accMu.Lock()
	defer c.accMu.Unlock()
	now := c.clock()
	if now.Sub(c.lastInterim) < throttle {
		return false
	}
	c.lastInterim = now
	return true
}

func (c *Controller) rolloverTranscript() {
	c.accMu.Lock()
	c.acc.Rollover()
	c.accMu.Unlock()
}

func (c *Controller) publishChunk(seq int, pcm []byte) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	c.bus.PublishJSON(protocol.SubjectAudioChunkPrefix+"."+sessionID, protocol.AudioChunk{
		SessionID:  sessionID,
		Sequence:   seq,
		SampleRate: c.cfg.Capture.SampleRate,
		Channels:   c.cfg.Capture.Channels,
		PCM:        pcm,
	})
}

func (c *Controller) publishTranscript(sessionID, subject, confirmed, interim string) {
	c.bus.PublishJSON(subject, protocol.TranscriptUpdate{
		SessionID: sessionID,
		Confirmed: confirmed,
		Interim:   interim,
		Timestamp: c.clock().UTC(),
	})
}

func (c *Controller) handleJobUpdate(update protocol.JobUpdate) {
	c.bus.PublishJSON(protocol.SubjectJobUpdate, update)
}
