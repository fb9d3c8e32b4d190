package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execBackend struct {
	cmd []string
	mu  sync.Mutex
}

type execResponse struct {
	Content string `json:"content"`
}

// NewExecBackend runs an external analysis command: the prompt pair goes in
// as JSON on stdin, the completion comes back as JSON on stdout.
func NewExecBackend(command string) (Backend, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse analyze command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("analyze command empty")
	}
	return &execBackend{cmd: args}, nil
}

func (b *execBackend) Complete(ctx context.Context, system, prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	payload := map[string]any{
		"system": system,
		"prompt": prompt,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	base := b.cmd[0]
	args := append([]string{}, b.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("analyze exec command failed: %w", err)
	}

	var resp execResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fmt.Errorf("decode analyze exec response: %w", err)
	}
	return resp.Content, nil
}
