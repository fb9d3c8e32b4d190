package recognition

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/protocol"
)

// ExecEngine runs an external recognizer process per listening stretch.
// The process streams one JSON event per stdout line, each carrying the
// full results list of the stretch so far, and exits when the stretch
// ends.
type ExecEngine struct {
	cmd []string
	cfg config.RecognitionConfig
}

type execEvent struct {
	Results []execResult `json:"results"`
}

type execResult struct {
	Text       string  `json:"text"`
	Final      bool    `json:"final"`
	Confidence float64 `json:"confidence"`
}

func NewExecEngine(cfg config.RecognitionConfig) (*ExecEngine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse recognition command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("recognition command is empty")
	}
	return &ExecEngine{cmd: args, cfg: cfg}, nil
}

func (e *ExecEngine) Run(ctx context.Context) (<-chan Event, error) {
	args := append([]string{}, e.cmd...)
	if e.cfg.Language != "" {
		args = append(args, "--language", e.cfg.Language)
	}
	if !e.cfg.PublishInterim {
		args = append(args, "--final-only")
	}

	command := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := command.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	var stderr bytes.Buffer
	command.Stderr = &stderr
	if err := command.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer: %w", err)
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var raw execEvent
			if err := json.Unmarshal(line, &raw); err != nil {
				emit(ctx, ch, Event{Err: fmt.Errorf("decode recognizer event: %w", err)})
				continue
			}
			results := make([]protocol.RecognitionResult, len(raw.Results))
			for i, r := range raw.Results {
				results[i] = protocol.RecognitionResult{Text: r.Text, Final: r.Final, Confidence: r.Confidence}
			}
			if !emit(ctx, ch, Event{Results: results}) {
				_ = command.Wait()
				return
			}
		}
		if err := command.Wait(); err != nil && ctx.Err() == nil {
			emit(ctx, ch, Event{Err: fmt.Errorf("recognizer exited: %w: %s", err, strings.TrimSpace(stderr.String()))})
		}
	}()
	return ch, nil
}

func emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
