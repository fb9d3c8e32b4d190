package recognition

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/protocol"
)

// Session keeps a continuous recognizer listening for the length of a
// recording. Engines end their stretches whenever they like, so the
// session restarts them after a short delay until Stop is called; Stop
// cancels the run context first, so a stretch ending after Stop never
// triggers a restart. Recognizer errors are logged and the session keeps
// listening; they never tear down the recording.
type Session struct {
	cfg    config.RecognitionConfig
	engine Engine
	logger *slog.Logger

	// OnEvent observes each recognition event in delivery order. Called
	// from the session goroutine.
	OnEvent func(ev protocol.RecognitionEvent)
	// OnRestart fires before each new stretch after the first, when the
	// engine's results index has reset to zero.
	OnRestart func()

	mu         sync.Mutex
	listening  bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	warnedOnce bool
	restarts   int
}

func NewSession(cfg config.RecognitionConfig, engine Engine, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		engine: engine,
		logger: logger.With(slog.String("component", "recognition")),
	}
}

// Listening reports whether the session is actively recognizing.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// Restarts reports how many times the engine has been restarted since
// Start.
func (s *Session) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// Start begins listening for the given recording session. With no engine
// available it warns once and returns nil; the recording proceeds without
// a live transcript.
func (s *Session) Start(sessionID string) error {
	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return nil
	}
	if s.engine == nil {
		warn := !s.warnedOnce
		s.warnedOnce = true
		s.mu.Unlock()
		if warn {
			s.logger.Warn("no speech recognition engine available, live transcript disabled")
		}
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.listening = true
	s.cancel = cancel
	s.restarts = 0
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx, sessionID)
	return nil
}

func (s *Session) loop(ctx context.Context, sessionID string) {
	defer s.wg.Done()
	delay := time.Duration(s.cfg.RestartDelayMS) * time.Millisecond

	for {
		events, err := s.engine.Run(ctx)
		if err != nil {
			s.logger.Warn("recognizer failed to start",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
		} else {
			for ev := range events {
				if ev.Err != nil {
					s.logger.Warn("recognizer error",
						slog.String("session_id", sessionID),
						slog.String("error", ev.Err.Error()))
					continue
				}
				if s.OnEvent != nil && len(ev.Results) > 0 {
					s.OnEvent(protocol.RecognitionEvent{
						SessionID: sessionID,
						Results:   ev.Results,
						Timestamp: time.Now().UTC(),
					})
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		s.restarts++
		s.mu.Unlock()
		if s.OnRestart != nil {
			s.OnRestart()
		}
	}
}

// Stop ends listening. Stopping a session that is not listening is a
// no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	s.listening = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}
