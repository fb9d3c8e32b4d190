package runtime

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/scribeworks/meetscribe/internal/capture"
	"github.com/scribeworks/meetscribe/internal/eventstore"
	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/presenter"
	"github.com/scribeworks/meetscribe/internal/recorder"
	"github.com/scribeworks/meetscribe/internal/share"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

const maxUploadBytes = 200 << 20

func (r *Runtime) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", r.handleHealth)
	mux.HandleFunc("GET /readyz", r.handleReady)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("POST /api/sessions", r.handleStartSession)
	mux.HandleFunc("POST /api/sessions/stop", r.handleStopSession)
	mux.HandleFunc("POST /api/sessions/{id}/stop", r.handleStopSession)
	mux.HandleFunc("POST /api/process", r.handleProcessFile)
	mux.HandleFunc("GET /api/jobs/{id}", r.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/share", r.handleShareJob)
	mux.HandleFunc("GET /api/view", r.handleView)
	mux.HandleFunc("GET /api/sessions/{id}/view", r.handleView)
	return mux
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (r *Runtime) handleStartSession(w http.ResponseWriter, req *http.Request) {
	sessionID, err := r.controller.StartRecording(req.Context())
	if err != nil {
		r.writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

type stopRequest struct {
	AnalysisType string `json:"analysis_type"`
}

func (r *Runtime) handleStopSession(w http.ResponseWriter, req *http.Request) {
	// The session-scoped path must name the session actually recording.
	if id := req.PathValue("id"); id != "" && id != r.controller.SessionID() {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var body stopRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AnalysisType == "" {
		body.AnalysisType = "summary"
	}

	jobID, err := r.controller.StopAndProcess(req.Context(), body.AnalysisType)
	if err != nil {
		r.writeRecorderError(w, err)
		return
	}
	r.setLastJob(jobID)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (r *Runtime) handleProcessFile(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart audio upload")
		return
	}
	analysisType := req.FormValue("analysis_type")
	if analysisType == "" {
		analysisType = "summary"
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	path, err := saveUpload(file, header.Filename)
	if err != nil {
		r.logger.Error("failed to stage upload", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}

	jobID, err := r.controller.ProcessFile(req.Context(), path, analysisType)
	if err != nil {
		os.Remove(path)
		r.writeRecorderError(w, err)
		return
	}
	r.setLastJob(jobID)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func saveUpload(file io.Reader, name string) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".wav"
	}
	out, err := os.CreateTemp("", "meetscribe_upload_*"+ext)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

type jobResponse struct {
	JobID             string                   `json:"job_id"`
	SessionID         string                   `json:"session_id,omitempty"`
	Status            string                   `json:"status"`
	AnalysisType      string                   `json:"analysis_type,omitempty"`
	Transcript        string                   `json:"transcript,omitempty"`
	Analysis          string                   `json:"analysis,omitempty"`
	SpeakerStats      []transcript.SpeakerStat `json:"speaker_stats,omitempty"`
	SyntheticSpeakers bool                     `json:"synthetic_speakers,omitempty"`
	UsedBackend       bool                     `json:"used_backend,omitempty"`
	Error             string                   `json:"error,omitempty"`
}

func (r *Runtime) handleGetJob(w http.ResponseWriter, req *http.Request) {
	jobID := req.PathValue("id")
	if res, ok := r.controller.Job(jobID); ok {
		writeJSON(w, http.StatusOK, jobResponse{
			JobID:             res.JobID,
			SessionID:         res.SessionID,
			Status:            string(res.Status),
			AnalysisType:      string(res.AnalysisType),
			Transcript:        res.TranscriptText,
			Analysis:          res.AnalysisText,
			SpeakerStats:      res.SpeakerStats,
			SyntheticSpeakers: res.SyntheticSpeakers,
			UsedBackend:       res.UsedBackend,
			Error:             res.ErrorMessage,
		})
		return
	}

	// Jobs from earlier runs live only in the store.
	job, err := r.store.GetJob(req.Context(), jobID)
	if errors.Is(err, eventstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		r.logger.Error("job lookup failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{
		JobID:             job.JobID,
		SessionID:         job.SessionID,
		Status:            job.Status,
		AnalysisType:      job.AnalysisType,
		Transcript:        job.Transcript,
		Analysis:          job.Analysis,
		SpeakerStats:      nil,
		SyntheticSpeakers: job.SyntheticSpeakers,
		UsedBackend:       job.UsedBackend,
		Error:             job.Error,
	})
}

func (r *Runtime) handleShareJob(w http.ResponseWriter, req *http.Request) {
	jobID := req.PathValue("id")
	res, ok := r.controller.Job(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if res.Status != pipeline.StatusCompleted || res.AnalysisText == "" {
		writeError(w, http.StatusConflict, "job has no shareable analysis")
		return
	}

	message := share.Message(res, res.AnalysisType.Label())
	if req.URL.Query().Get("copy") == "1" {
		if err := share.Copy(message, os.Stdout); err != nil {
			r.logger.Warn("clipboard copy failed", slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": share.Capped(message, r.cfg.Share.MaxMessageLength),
	})
}

func (r *Runtime) handleView(w http.ResponseWriter, req *http.Request) {
	var res *pipeline.Result
	if jobID := r.lastJob(); jobID != "" {
		if job, ok := r.controller.Job(jobID); ok {
			res = &job
		}
	}
	if id := req.PathValue("id"); id != "" {
		known := id == r.controller.SessionID() || (res != nil && id == res.SessionID)
		if !known {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
	}
	view := presenter.Render(r.controller.State(), r.controller.SessionID(), r.controller.LiveTranscript(), res)
	writeJSON(w, http.StatusOK, view)
}

func (r *Runtime) writeRecorderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recorder.ErrAlreadyRecording), errors.Is(err, recorder.ErrProcessing):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recorder.ErrNotRecording):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
