package analyze

import (
	"context"
	"strings"
)

type mockBackend struct{}

func NewMockBackend() Backend { return &mockBackend{} }

func (m *mockBackend) Complete(_ context.Context, _, prompt string) (string, error) {
	// Echo a stable marker so pipeline tests can assert the call happened.
	first := prompt
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = first[:idx]
	}
	return "[mock analysis: " + strings.TrimSpace(first) + "]", nil
}
