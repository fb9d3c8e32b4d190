package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/scribeworks/meetscribe/internal/protocol"
)

// BusSource receives microphone audio published by front-end clients on
// the audio ingest subject. The daemon has no microphone of its own; the
// client that owns the device streams PCM chunks over the bus and the
// session consumes them like any other source.
type BusSource struct {
	conn    *nats.Conn
	subject string
}

func NewBusSource(conn *nats.Conn) *BusSource {
	return &BusSource{conn: conn, subject: protocol.SubjectAudioIngest}
}

func (s *BusSource) Open(_ context.Context, _ SourceConstraints) (Stream, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("no bus connection for audio ingest")
	}
	stream := &busStream{
		ch:   make(chan []byte, 256),
		done: make(chan struct{}),
	}
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		var chunk protocol.AudioChunk
		if err := json.Unmarshal(msg.Data, &chunk); err != nil {
			return
		}
		if len(chunk.PCM) == 0 {
			return
		}
		select {
		case stream.ch <- chunk.PCM:
		case <-stream.done:
		default:
			// Consumer fell behind; dropping beats stalling the bus.
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe audio ingest: %w", err)
	}
	stream.sub = sub
	return stream, nil
}

type busStream struct {
	sub  *nats.Subscription
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (s *busStream) Chunks() <-chan []byte { return s.ch }

func (s *busStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.sub.Unsubscribe()
	})
	return err
}

// Unavailable is the Source for deployments with no audio ingest path at
// all; every Open fails and recording stays disabled.
type Unavailable struct{}

func (Unavailable) Open(context.Context, SourceConstraints) (Stream, error) {
	return nil, fmt.Errorf("no capture source available")
}
