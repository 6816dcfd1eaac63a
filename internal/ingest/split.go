package ingest

import "strings"

// DefaultPassageChars is the target passage length in runes.
const DefaultPassageChars = 800

// SplitPassages splits cleaned text into passages of roughly target runes,
// preferring paragraph breaks, then sentence breaks, then word breaks over
// mid-word splits. The final passage may be shorter. No text is dropped:
// the concatenation of all passages equals the input up to boundary
// whitespace.
func SplitPassages(text string, target int) []string {
	if target <= 0 {
		target = DefaultPassageChars
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var passages []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			passages = append(passages, s)
		}
		current.Reset()
		currentLen = 0
	}
	appendPiece := func(piece, sep string) {
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += len([]rune(sep))
		}
		current.WriteString(piece)
		currentLen += len([]rune(piece))
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := len([]rune(para))

		if currentLen+paraLen+2 <= target {
			appendPiece(para, "\n\n")
			continue
		}
		flush()

		if paraLen <= target {
			appendPiece(para, "\n\n")
			continue
		}

		for _, sentence := range splitSentences(para) {
			sentLen := len([]rune(sentence))
			if currentLen+sentLen+1 <= target {
				appendPiece(sentence, " ")
				continue
			}
			flush()
			if sentLen <= target {
				appendPiece(sentence, " ")
				continue
			}
			for _, word := range strings.Fields(sentence) {
				wordLen := len([]rune(word))
				if currentLen+wordLen+1 <= target {
					appendPiece(word, " ")
					continue
				}
				flush()
				if wordLen <= target {
					appendPiece(word, " ")
					continue
				}
				// Pathological unbroken run, hard split by runes.
				runes := []rune(word)
				for len(runes) > target {
					passages = append(passages, string(runes[:target]))
					runes = runes[target:]
				}
				appendPiece(string(runes), " ")
			}
		}
	}
	flush()

	return passages
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// splitSentences breaks a paragraph after sentence-ending punctuation.
func splitSentences(para string) []string {
	var sentences []string
	runes := []rune(para)
	start := 0
	for i, r := range runes {
		if !sentenceEnders[r] {
			continue
		}
		// Treat as a boundary only at end of text or before whitespace,
		// so "3.14" stays intact.
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && !sentenceEnders[runes[i+1]] {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
