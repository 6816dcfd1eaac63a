package index

import (
	"strings"
	"unicode"
)

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// Tokenize lowercases text and splits it into index terms: runs of letters,
// digits and underscores become one term each, while every CJK character is
// emitted as its own single-rune term. Non-CJK terms shorter than two runes
// are dropped.
func Tokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) >= 2 {
			tokens = append(tokens, string(current))
		}
		current = current[:0]
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			current = append(current, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// TermCounts returns the term frequency map of text.
func TermCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, term := range Tokenize(text) {
		counts[term]++
	}
	return counts
}
