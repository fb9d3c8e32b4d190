package recognition

import (
	"context"
	"sync"

	"github.com/scribeworks/meetscribe/internal/protocol"
)

// MockEngine replays scripted listening stretches. Script[n] is delivered
// on the n-th Run; runs past the end of the script end immediately with
// no events.
type MockEngine struct {
	Script [][]Event

	mu   sync.Mutex
	runs int
}

// NewMockEngine returns an engine scripted with a single short stretch,
// an interim hypothesis followed by its finalization.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Script: [][]Event{{
			{Results: []protocol.RecognitionResult{
				{Text: "this is a mock", Final: false},
			}},
			{Results: []protocol.RecognitionResult{
				{Text: "this is a mock transcript", Final: true, Confidence: 0.9},
			}},
		}},
	}
}

func (m *MockEngine) Run(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	var events []Event
	if m.runs < len(m.Script) {
		events = m.Script[m.runs]
	}
	m.runs++
	m.mu.Unlock()

	ch := make(chan Event)
	go func() {
		defer close(ch)
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Runs reports how many listening stretches were started.
func (m *MockEngine) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
