package analyze

import (
	"context"
	"fmt"
)

// AnalysisType is the closed set of analyses the pipeline can request.
// Unknown values are rejected at the boundary rather than silently mapped
// to a summary, so caller bugs surface instead of masking themselves.
type AnalysisType string

const (
	TypeSummary      AnalysisType = "summary"
	TypeActionItems  AnalysisType = "action_items"
	TypeKeyDecisions AnalysisType = "key_decisions"
	TypeFollowUp     AnalysisType = "follow_up"
	TypeParticipants AnalysisType = "participants"
	TypeSentiment    AnalysisType = "sentiment"
)

// ParseAnalysisType validates a caller-supplied type string.
func ParseAnalysisType(s string) (AnalysisType, error) {
	t := AnalysisType(s)
	if _, ok := prompts[t]; !ok {
		return "", fmt.Errorf("unknown analysis type %q", s)
	}
	return t, nil
}

// SupportedTypes lists the valid analysis types in a stable order.
func SupportedTypes() []AnalysisType {
	return []AnalysisType{
		TypeSummary,
		TypeActionItems,
		TypeKeyDecisions,
		TypeFollowUp,
		TypeParticipants,
		TypeSentiment,
	}
}

// Label returns the human-readable name used in views and share payloads.
func (t AnalysisType) Label() string {
	switch t {
	case TypeSummary:
		return "Meeting Summary"
	case TypeActionItems:
		return "Action Items"
	case TypeKeyDecisions:
		return "Key Decisions"
	case TypeFollowUp:
		return "Follow-up"
	case TypeParticipants:
		return "Participant Analysis"
	case TypeSentiment:
		return "Sentiment"
	}
	return string(t)
}

// Request carries one analysis invocation.
type Request struct {
	Type           AnalysisType
	TranscriptText string
}

// Backend produces a completion for a system/user prompt pair. Implemented
// by the remote chat-completions client, the exec command wrapper, and the
// mock used in tests.
type Backend interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
