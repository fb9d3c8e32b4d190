package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

// ErrEmptyCompletion reports a backend call that returned no usable text.
var ErrEmptyCompletion = errors.New("analysis backend returned empty content")

// Service wraps a Backend with prompt construction and token-budget
// handling. Over-budget transcripts are either truncated at a sentence
// boundary or split into independently analyzed parts, per config; both
// are deterministic and neither is surfaced to the caller as an error.
type Service struct {
	cfg     config.AnalyzeConfig
	backend Backend
	logger  *slog.Logger
}

func NewService(cfg config.AnalyzeConfig, backend Backend, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With(slog.String("component", "analyze")),
	}
}

// FromConfig builds the backend selected by cfg.Mode.
func FromConfig(cfg config.AnalyzeConfig, logger *slog.Logger) (*Service, error) {
	var backend Backend
	var err error
	switch cfg.Mode {
	case "mock":
		backend = NewMockBackend()
	case "remote":
		backend = NewRemoteBackend(cfg)
	case "exec":
		backend, err = NewExecBackend(cfg.Command)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown analyze mode %q", cfg.Mode)
	}
	return NewService(cfg, backend, logger), nil
}

// Analyze runs one analysis request and returns the analysis text.
func (s *Service) Analyze(ctx context.Context, req Request) (string, error) {
	if _, err := ParseAnalysisType(string(req.Type)); err != nil {
		return "", err
	}
	text := strings.TrimSpace(req.TranscriptText)
	if text == "" {
		return "", errors.New("transcript text is empty")
	}

	parts, reduced := transcript.FitToBudget(text, s.cfg.TokenBudget, s.cfg.LongInput)
	if reduced {
		s.logger.Warn("transcript over token budget",
			slog.Int("budget", s.cfg.TokenBudget),
			slog.String("mode", s.cfg.LongInput),
			slog.Int("parts", len(parts)))
	}

	if len(parts) == 1 {
		return s.analyzePart(ctx, req.Type, parts[0])
	}

	var out strings.Builder
	for i, part := range parts {
		result, err := s.analyzePart(ctx, req.Type, part)
		if err != nil {
			return "", fmt.Errorf("part %d/%d: %w", i+1, len(parts), err)
		}
		if i > 0 {
			out.WriteString("\n\n")
		}
		fmt.Fprintf(&out, "## Part %d of %d\n\n%s", i+1, len(parts), result)
	}
	return out.String(), nil
}

func (s *Service) analyzePart(ctx context.Context, t AnalysisType, text string) (string, error) {
	prompt := promptFor(t) + "\n\nMeeting transcript:\n" + text

	start := time.Now()
	result, err := s.backend.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return "", ErrEmptyCompletion
	}
	s.logger.Info("analysis complete",
		slog.String("type", string(t)),
		slog.Duration("latency", time.Since(start)))
	return result, nil
}
