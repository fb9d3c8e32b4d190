package transcript

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcdefgh", 2},
		{"你好世界", 3},      // 4 CJK chars / 1.5, rounded up
		{"你好ab", 2},       // 2/1.5 + 2/4 = 1.83…
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestFitToBudgetExactBoundary(t *testing.T) {
	// 230 plain chars estimate to 58 tokens; at estimate == budget nothing
	// is touched.
	text := strings.Repeat("alpha beta gamma delta.", 10)
	if got := EstimateTokens(text); got != 58 {
		t.Fatalf("fixture estimate changed: %d", got)
	}
	parts, reduced := FitToBudget(text, 58, "truncate")
	if reduced || len(parts) != 1 || parts[0] != text {
		t.Fatalf("expected untouched text at exact budget")
	}
}

func TestFitToBudgetTruncatesAtSentenceBoundary(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta.", 10)
	parts, reduced := FitToBudget(text, 57, "truncate")
	if !reduced || len(parts) != 1 {
		t.Fatalf("expected a single truncated part")
	}
	got := parts[0]
	if !strings.HasPrefix(text, got) || got == text {
		t.Fatalf("truncation must produce a strict prefix")
	}
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("expected cut at sentence boundary, got %q…", got[len(got)-10:])
	}
	if EstimateTokens(got) > 57 {
		t.Fatalf("truncated text still over budget")
	}

	// Deterministic for the same input and budget.
	again, _ := FitToBudget(text, 57, "truncate")
	if again[0] != got {
		t.Fatal("truncation is not deterministic")
	}
}

func TestFitToBudgetSplit(t *testing.T) {
	text := strings.Repeat("one two three four five six. ", 40)
	budget := 50
	parts, reduced := FitToBudget(text, budget, "split")
	if !reduced || len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	if strings.Join(parts, "") != text {
		t.Fatal("split parts must reassemble the original text")
	}
	for i, p := range parts {
		if EstimateTokens(p) > budget {
			t.Fatalf("part %d over budget", i)
		}
	}
	again, _ := FitToBudget(text, budget, "split")
	if len(again) != len(parts) {
		t.Fatal("split is not deterministic")
	}
}

func TestFitToBudgetCJKWeighting(t *testing.T) {
	// CJK text exhausts a budget far sooner than the same rune count of
	// ASCII would.
	cjk := strings.Repeat("會議記錄摘要。", 30) // 210 runes → 140 tokens
	parts, reduced := FitToBudget(cjk, 100, "truncate")
	if !reduced {
		t.Fatal("expected CJK text over budget")
	}
	if EstimateTokens(parts[0]) > 100 {
		t.Fatal("truncated CJK text still over budget")
	}
	if !strings.HasSuffix(parts[0], "。") {
		t.Fatalf("expected cut at CJK sentence boundary")
	}
}
