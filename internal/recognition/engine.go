package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/protocol"
)

// ErrUnsupported reports that no continuous recognizer is available on
// this platform. Live transcription degrades to nothing; recording and
// backend processing are unaffected.
var ErrUnsupported = errors.New("continuous speech recognition unsupported")

// Event is one result callback from a listening stretch. A continuous
// recognizer re-emits its full ordered results list on every callback, so
// Results always starts at index zero of the current stretch.
type Event struct {
	Results []protocol.RecognitionResult
	Err     error
}

// Engine abstracts continuous speech recognizers. Run begins one
// listening stretch and returns its event channel; the channel closes
// when the recognizer ends, whether it stopped on its own or because ctx
// was canceled. Engines end stretches on their own schedule (silence,
// internal limits), so callers own the restart policy.
type Engine interface {
	Run(ctx context.Context) (<-chan Event, error)
}

// FromConfig builds the configured engine. A disabled config returns a
// nil engine and no error; the session treats that as the capability
// being absent.
func FromConfig(cfg config.RecognitionConfig) (Engine, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Mode {
	case "", "mock":
		return NewMockEngine(), nil
	case "exec":
		return NewExecEngine(cfg)
	default:
		return nil, fmt.Errorf("unsupported recognition mode: %s", cfg.Mode)
	}
}
