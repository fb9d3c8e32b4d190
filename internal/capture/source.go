package capture

import (
	"context"
	"errors"
)

// ErrPermissionDenied reports that the platform refused microphone access.
// Surfaced to the caller as-is; retrying is the user's call, not ours.
var ErrPermissionDenied = errors.New("microphone permission denied")

// SourceConstraints mirror the capture constraints requested from the
// platform's audio stack.
type SourceConstraints struct {
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
}

// Source is the microphone abstraction. Open acquires the device and
// returns a live stream; it fails with ErrPermissionDenied when the user
// or OS refuses access.
type Source interface {
	Open(ctx context.Context, constraints SourceConstraints) (Stream, error)
}

// Stream delivers PCM chunks at the capture interval. The channel closes
// when the underlying device stops. Close releases the device tracks;
// skipping it leaves the OS microphone indicator lit.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
}
