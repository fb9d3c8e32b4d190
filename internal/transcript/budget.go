package transcript

import (
	"math"
	"strings"
	"unicode"
)

// EstimateTokens approximates the model token count of text: CJK characters
// weigh roughly one token per 1.5 characters, everything else one token per
// 4 characters. The estimate only has to be stable and conservative enough
// to keep requests under the backend's limit.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	return int(math.Ceil(float64(cjk)/1.5 + float64(other)/4))
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// FitToBudget makes text fit an estimated token budget. Mode "truncate"
// returns a single strict prefix cut at the last sentence or paragraph
// boundary under the budget; mode "split" returns sequential parts each
// under the budget, to be analyzed independently. Text already within
// budget is returned unchanged as one part. Deterministic for a given
// input, budget and mode.
func FitToBudget(text string, budget int, mode string) ([]string, bool) {
	if EstimateTokens(text) <= budget {
		return []string{text}, false
	}
	if mode == "split" {
		return splitToBudget(text, budget), true
	}
	return []string{truncateToBudget(text, budget)}, true
}

func truncateToBudget(text string, budget int) string {
	runes := []rune(text)
	cut := maxRunesWithin(runes, budget)
	if cut == 0 {
		return ""
	}
	// Prefer the last sentence or paragraph boundary inside the cut, as
	// long as it does not discard the bulk of the kept text.
	boundary := -1
	for i := 0; i < cut; i++ {
		if strings.ContainsRune(sentenceEnders, runes[i]) {
			boundary = i
		}
	}
	if boundary >= 0 && boundary+1 >= cut*4/5 {
		cut = boundary + 1
	}
	return string(runes[:cut])
}

func splitToBudget(text string, budget int) []string {
	var parts []string
	remaining := []rune(text)
	for len(remaining) > 0 {
		cut := maxRunesWithin(remaining, budget)
		if cut == 0 {
			// A single rune over budget; emit it anyway to guarantee progress.
			cut = 1
		}
		if cut < len(remaining) {
			boundary := -1
			for i := 0; i < cut; i++ {
				if strings.ContainsRune(sentenceEnders, remaining[i]) {
					boundary = i
				}
			}
			if boundary >= 0 && boundary+1 >= cut*4/5 {
				cut = boundary + 1
			}
		}
		parts = append(parts, string(remaining[:cut]))
		remaining = remaining[cut:]
	}
	return parts
}

// maxRunesWithin returns the longest prefix length whose estimate fits the
// budget. Token weight per rune is fixed, so the scan is a single pass.
func maxRunesWithin(runes []rune, budget int) int {
	var cjk, other int
	for i, r := range runes {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
		if math.Ceil(float64(cjk)/1.5+float64(other)/4) > float64(budget) {
			return i
		}
	}
	return len(runes)
}
