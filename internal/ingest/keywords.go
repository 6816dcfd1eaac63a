package ingest

import (
	"sort"

	"communibot/internal/index"
)

const defaultMaxKeywords = 10

var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "an", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "shall", "can", "to", "of", "in", "for",
		"on", "with", "at", "by", "from", "as", "into", "through", "during",
		"before", "after", "above", "below", "between", "under", "again",
		"further", "then", "once", "here", "there", "when", "where", "why",
		"how", "all", "both", "each", "few", "more", "most", "other", "some",
		"such", "no", "not", "only", "own", "same", "so", "than", "too",
		"very", "just", "don", "now", "and", "but", "or", "if", "it", "its",
		"this", "that", "these", "those", "me", "my", "we", "our", "you",
		"your", "he", "him", "his", "she", "her", "they", "them", "their",
		"what", "which", "who", "whom",
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都",
		"一", "一个", "上", "也", "很", "到", "说", "要", "去", "你",
		"会", "着", "没有", "看", "好", "自己", "这",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns up to max of the most frequent meaningful terms in
// text, most frequent first, ties alphabetical. Used as passage metadata for
// the admin file listing.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		max = defaultMaxKeywords
	}

	counts := make(map[string]int)
	for _, term := range index.Tokenize(text) {
		if _, stop := stopWords[term]; stop {
			continue
		}
		if isNumeric(term) {
			continue
		}
		counts[term]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if max > len(terms) {
		max = len(terms)
	}
	return terms[:max]
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
