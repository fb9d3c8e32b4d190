package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scribeworks/meetscribe/internal/config"
)

// Session owns the microphone stream and the chunked recording sink for
// one recording. Chunks accumulate in delivery order and are concatenated
// into a single clip on Stop. At most one capture may be active per
// session; Start while recording is a guarded no-op so a second stream is
// never leaked.
type Session struct {
	cfg    config.CaptureConfig
	source Source
	logger *slog.Logger

	// OnChunk, when set, observes each chunk as it arrives (used to fan
	// chunks out on the bus). Called from the collection goroutine.
	OnChunk func(seq int, pcm []byte)

	mu        sync.Mutex
	recording bool
	chunks    [][]byte
	stream    Stream
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewSession(cfg config.CaptureConfig, source Source, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		source: source,
		logger: logger.With(slog.String("component", "capture")),
	}
}

// Recording reports whether a capture is active.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Start acquires the microphone and begins chunked capture. Permission
// failures are returned to the caller, never retried here. The lock is
// held across the device open so two concurrent Starts can never both
// pass the guard and acquire a second stream.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return nil
	}

	stream, err := s.source.Open(ctx, SourceConstraints{
		SampleRate:       s.cfg.SampleRate,
		Channels:         s.cfg.Channels,
		EchoCancellation: s.cfg.EchoCancel,
		NoiseSuppression: s.cfg.NoiseSuppress,
	})
	if err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}

	collectCtx, cancel := context.WithCancel(context.Background())
	s.recording = true
	s.chunks = nil
	s.stream = stream
	s.cancel = cancel

	s.wg.Add(1)
	go s.collect(collectCtx, stream)
	return nil
}

func (s *Session) collect(ctx context.Context, stream Stream) {
	defer s.wg.Done()
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case pcm, ok := <-stream.Chunks():
			if !ok {
				return
			}
			s.mu.Lock()
			s.chunks = append(s.chunks, pcm)
			s.mu.Unlock()
			if s.OnChunk != nil {
				s.OnChunk(seq, pcm)
			}
			seq++
		}
	}
}

// Stop halts capture, releases the device, and finalizes all chunks into
// one clip. Stopping a session that is not recording returns an empty
// clip, not an error.
func (s *Session) Stop() (Clip, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return Clip{}, nil
	}
	s.recording = false
	cancel := s.cancel
	stream := s.stream
	s.cancel = nil
	s.stream = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	if err := stream.Close(); err != nil {
		s.logger.Warn("failed to close capture stream", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	var total int
	for _, chunk := range s.chunks {
		total += len(chunk)
	}
	pcm := make([]byte, 0, total)
	for _, chunk := range s.chunks {
		pcm = append(pcm, chunk...)
	}
	s.chunks = nil
	s.mu.Unlock()

	return finalizeClip(pcm, s.cfg.SampleRate, s.cfg.Channels)
}
