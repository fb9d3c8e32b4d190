package recognition

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecognitionConfig(restartDelayMS int) config.RecognitionConfig {
	cfg := config.Default().Recognition
	cfg.RestartDelayMS = restartDelayMS
	return cfg
}

func collectEvents(t *testing.T, ch <-chan protocol.RecognitionEvent, n int) []protocol.RecognitionEvent {
	t.Helper()
	events := make([]protocol.RecognitionEvent, 0, n)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestSessionDeliversEventsInOrder(t *testing.T) {
	engine := NewMockEngine()
	session := NewSession(testRecognitionConfig(500), engine, testLogger())

	received := make(chan protocol.RecognitionEvent, 8)
	session.OnEvent = func(ev protocol.RecognitionEvent) { received <- ev }

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Stop()

	events := collectEvents(t, received, 2)
	if events[0].SessionID != "sess-1" {
		t.Fatalf("session id = %q, want sess-1", events[0].SessionID)
	}
	if events[0].Results[0].Final {
		t.Fatal("first scripted event should be interim")
	}
	if !events[1].Results[0].Final {
		t.Fatal("second scripted event should be final")
	}
}

func TestSessionRestartsEndedEngine(t *testing.T) {
	engine := &MockEngine{Script: [][]Event{
		{{Results: []protocol.RecognitionResult{{Text: "first stretch", Final: true}}}},
		{{Results: []protocol.RecognitionResult{{Text: "second stretch", Final: true}}}},
	}}
	session := NewSession(testRecognitionConfig(1), engine, testLogger())

	received := make(chan protocol.RecognitionEvent, 8)
	session.OnEvent = func(ev protocol.RecognitionEvent) { received <- ev }
	restarted := make(chan struct{}, 8)
	session.OnRestart = func() { restarted <- struct{}{} }

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Stop()

	events := collectEvents(t, received, 2)
	if events[1].Results[0].Text != "second stretch" {
		t.Fatalf("second event text = %q", events[1].Results[0].Text)
	}
	select {
	case <-restarted:
	case <-time.After(2 * time.Second):
		t.Fatal("restart hook never fired")
	}
	if engine.Runs() < 2 {
		t.Fatalf("engine ran %d times, want at least 2", engine.Runs())
	}
}

func TestSessionStopPreventsRestart(t *testing.T) {
	engine := &MockEngine{Script: [][]Event{
		{{Results: []protocol.RecognitionResult{{Text: "only stretch", Final: true}}}},
	}}
	session := NewSession(testRecognitionConfig(300), engine, testLogger())

	received := make(chan protocol.RecognitionEvent, 8)
	session.OnEvent = func(ev protocol.RecognitionEvent) { received <- ev }

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	collectEvents(t, received, 1)
	session.Stop()

	if session.Listening() {
		t.Fatal("session still listening after stop")
	}
	if engine.Runs() != 1 {
		t.Fatalf("engine ran %d times after stop, want 1", engine.Runs())
	}
	if session.Restarts() != 0 {
		t.Fatalf("restarts = %d, want 0", session.Restarts())
	}
}

func TestSessionStartWhileListeningIsNoop(t *testing.T) {
	engine := &MockEngine{Script: [][]Event{
		{{Results: []protocol.RecognitionResult{{Text: "stretch", Final: true}}}},
	}}
	session := NewSession(testRecognitionConfig(500), engine, testLogger())

	received := make(chan protocol.RecognitionEvent, 8)
	session.OnEvent = func(ev protocol.RecognitionEvent) { received <- ev }

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	collectEvents(t, received, 1)
	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("second start: %v", err)
	}
	session.Stop()

	if engine.Runs() != 1 {
		t.Fatalf("engine ran %d times, want 1", engine.Runs())
	}
}

func TestSessionWithoutEngineDegrades(t *testing.T) {
	session := NewSession(testRecognitionConfig(10), nil, testLogger())

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start without engine: %v", err)
	}
	if session.Listening() {
		t.Fatal("session must not report listening without an engine")
	}
	session.Stop()
}

func TestSessionSkipsErrorEvents(t *testing.T) {
	engine := &MockEngine{Script: [][]Event{{
		{Err: errors.New("network")},
		{Results: []protocol.RecognitionResult{{Text: "recovered", Final: true}}},
	}}}
	session := NewSession(testRecognitionConfig(500), engine, testLogger())

	received := make(chan protocol.RecognitionEvent, 8)
	session.OnEvent = func(ev protocol.RecognitionEvent) { received <- ev }

	if err := session.Start("sess-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Stop()

	events := collectEvents(t, received, 1)
	if events[0].Results[0].Text != "recovered" {
		t.Fatalf("event text = %q, want result after skipped error", events[0].Results[0].Text)
	}
}

func TestFromConfig(t *testing.T) {
	disabled := config.Default().Recognition
	disabled.Enabled = false
	engine, err := FromConfig(disabled)
	if err != nil || engine != nil {
		t.Fatalf("disabled config: engine=%v err=%v", engine, err)
	}

	bad := config.Default().Recognition
	bad.Mode = "quantum"
	if _, err := FromConfig(bad); err == nil {
		t.Fatal("expected error for unknown mode")
	}

	mock := config.Default().Recognition
	mock.Mode = "mock"
	engine, err = FromConfig(mock)
	if err != nil || engine == nil {
		t.Fatalf("mock config: engine=%v err=%v", engine, err)
	}
}
