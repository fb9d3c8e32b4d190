package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scribeworks/meetscribe/internal/analyze"
	"github.com/scribeworks/meetscribe/internal/bus"
	"github.com/scribeworks/meetscribe/internal/capture"
	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/diarize"
	"github.com/scribeworks/meetscribe/internal/eventstore"
	"github.com/scribeworks/meetscribe/internal/natsserver"
	"github.com/scribeworks/meetscribe/internal/pipeline"
	"github.com/scribeworks/meetscribe/internal/recognition"
	"github.com/scribeworks/meetscribe/internal/recorder"
	"github.com/scribeworks/meetscribe/internal/transcribe"
)

// Runtime wires the daemon together: telemetry, the bus, persistence,
// the processing pipeline, the recording controller, and the HTTP API.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	controller  *recorder.Controller
	store       *eventstore.Store
	ready       atomic.Bool
	wg          sync.WaitGroup

	mu        sync.Mutex
	lastJobID string
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings the daemon up and blocks until ctx is canceled.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded nats: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		// The API and file-upload path work without a bus; only live
		// capture over audio ingest is lost.
		r.logger.Warn("bus unavailable, recording over ingest disabled", slog.String("error", err.Error()))
		busClient = nil
	}
	defer busClient.Close()

	store, err := eventstore.Open(ctx, r.cfg.Store, r.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	r.store = store

	analyzer, err := analyze.FromConfig(r.cfg.Analyze, r.logger)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}
	backend := transcribe.NewClient(r.cfg.Transcribe, r.logger)
	orch := pipeline.NewOrchestrator(r.cfg.Pipeline, backend, analyzer, r.logger)
	if r.cfg.Diarize.Enabled && r.cfg.Diarize.Endpoint != "" {
		orch.Diarizer = diarize.NewClient(r.cfg.Diarize)
	}

	engine, err := recognition.FromConfig(r.cfg.Recognition)
	if err != nil {
		return fmt.Errorf("build recognition engine: %w", err)
	}
	var source capture.Source = capture.Unavailable{}
	if busClient != nil {
		source = capture.NewBusSource(busClient.Conn())
	}

	r.controller = recorder.New(r.cfg, source, engine, orch, store, busClient, r.logger)
	defer r.controller.Close()

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r.routes(metricsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) setLastJob(jobID string) {
	r.mu.Lock()
	r.lastJobID = jobID
	r.mu.Unlock()
}

func (r *Runtime) lastJob() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastJobID
}
