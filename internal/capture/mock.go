package capture

import (
	"context"
	"sync"
)

// MockSource is a scripted microphone for tests. Queued chunks are
// delivered to the stream as soon as it opens; Denied simulates the
// platform refusing access.
type MockSource struct {
	Denied bool
	Queued [][]byte

	mu     sync.Mutex
	opens  int
	closed int
}

func (m *MockSource) Open(_ context.Context, _ SourceConstraints) (Stream, error) {
	if m.Denied {
		return nil, ErrPermissionDenied
	}
	m.mu.Lock()
	m.opens++
	m.mu.Unlock()

	ch := make(chan []byte, len(m.Queued))
	for _, chunk := range m.Queued {
		ch <- chunk
	}
	return &mockStream{ch: ch, source: m}, nil
}

// Opens reports how many streams were acquired.
func (m *MockSource) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Closed reports how many streams were released.
func (m *MockSource) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockStream struct {
	ch     chan []byte
	source *MockSource
	once   sync.Once
}

func (s *mockStream) Chunks() <-chan []byte { return s.ch }

func (s *mockStream) Close() error {
	s.once.Do(func() {
		s.source.mu.Lock()
		s.source.closed++
		s.source.mu.Unlock()
	})
	return nil
}
